package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/convobase/convobase/pkg/models"
)

const (
	// defaultStepBudget bounds one execution; diamonds may legitimately
	// revisit join nodes, so the budget counts visits, not unique nodes.
	defaultStepBudget = 100

	// defaultDelaySeconds applies when a delay node declares no duration.
	defaultDelaySeconds = 5
)

// Walker traverses an automation's node graph depth-first, evaluating
// conditions and handing action nodes to the dispatcher.
type Walker struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
	stepBudget int
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewWalker creates a graph walker over the given dispatcher.
func NewWalker(dispatcher *Dispatcher, logger *slog.Logger) *Walker {
	return &Walker{
		dispatcher: dispatcher,
		logger:     logger.With("module", "graph_walker"),
		stepBudget: defaultStepBudget,
		sleep:      sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Walk executes the graph from start and returns the number of nodes
// visited. A node already on the current path aborts the walk with
// ErrCyclicGraph; rejoining paths (diamonds) are allowed. Branch targets
// that do not resolve end that path silently.
func (w *Walker) Walk(ctx context.Context, automation *models.Automation, start *models.Node, execCtx *models.ExecutionContext) (int, error) {
	if start == nil {
		return 0, nil
	}

	state := &walkState{
		onPath: make(map[string]bool),
	}

	if err := w.walk(ctx, automation, start, execCtx, state); err != nil {
		return state.steps, err
	}

	return state.steps, nil
}

type walkState struct {
	onPath map[string]bool
	steps  int
}

func (w *Walker) walk(ctx context.Context, automation *models.Automation, node *models.Node, execCtx *models.ExecutionContext, state *walkState) error {
	if state.onPath[node.ID] {
		return ErrCyclicGraph
	}

	state.steps++
	if state.steps > w.stepBudget {
		return ErrStepBudgetExceeded
	}

	state.onPath[node.ID] = true
	defer delete(state.onPath, node.ID)

	logger := w.logger.With("automation_id", automation.ID, "node_id", node.ID, "node_type", node.Type)

	switch node.Type {
	case models.NodeTypeTrigger:
		return w.walkNext(ctx, automation, node, execCtx, state)

	case models.NodeTypeAction:
		w.dispatcher.Dispatch(ctx, node, execCtx)

		return w.walkNext(ctx, automation, node, execCtx, state)

	case models.NodeTypeCondition:
		target := node.FalseBranch
		if Evaluate(node.Data.Condition, execCtx) {
			target = node.TrueBranch
		}

		if target == "" {
			return nil
		}

		next, found := automation.NodeByID(target)
		if !found {
			logger.Warn("Branch target not found, stopping path", "target", target)

			return nil
		}

		return w.walk(ctx, automation, next, execCtx, state)

	case models.NodeTypeDelay:
		seconds := node.Data.Delay
		if seconds <= 0 {
			seconds = defaultDelaySeconds
		}

		if err := w.sleep(ctx, time.Duration(seconds)*time.Second); err != nil {
			return err
		}

		return w.walkNext(ctx, automation, node, execCtx, state)

	default:
		logger.Warn("Unknown node type, stopping path")

		return nil
	}
}

// walkNext fans out over the node's Next targets depth-first, in
// declaration order. Unresolvable targets are skipped.
func (w *Walker) walkNext(ctx context.Context, automation *models.Automation, node *models.Node, execCtx *models.ExecutionContext, state *walkState) error {
	for _, id := range node.Next {
		next, found := automation.NodeByID(id)
		if !found {
			w.logger.Warn("Next target not found, skipping",
				"automation_id", automation.ID, "node_id", node.ID, "target", id)

			continue
		}

		if err := w.walk(ctx, automation, next, execCtx, state); err != nil {
			return err
		}
	}

	return nil
}
