package sim

import (
	"fmt"
	"log"
)

// A LogHook prints every hook invocation with a logger.
type LogHook struct {
	*log.Logger
}

// NewLogHook creates a LogHook that writes to the logger.
func NewLogHook(logger *log.Logger) *LogHook {
	return &LogHook{Logger: logger}
}

// Func prints the position, the item and the detail of the invocation.
func (h *LogHook) Func(ctx HookCtx) {
	if ctx.Detail == nil {
		h.Printf("%s %v", ctx.Pos.Name, ctx.Item)
		return
	}

	h.Printf("%s %v %s", ctx.Pos.Name, ctx.Item, fmt.Sprintf("%+v", ctx.Detail))
}
