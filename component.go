package flywheel

import (
	"github.com/TheBitDrifter/table"
)

// Component represents a data attribute/state that can be attached to
// entities. Components can be used to build queries and command-buffer
// packages.
type Component interface {
	table.ElementType
}
