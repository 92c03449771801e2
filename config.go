package flywheel

import "github.com/TheBitDrifter/table"

// Config holds process-wide configuration for the underlying table system,
// shared by every archetype table any Registry in the process builds.
var Config config = config{}

type config struct {
	tableEvents table.TableEvents
}

// SetTableEvents configures the table event callbacks.
func (c *config) SetTableEvents(te table.TableEvents) {
	c.tableEvents = te
}
