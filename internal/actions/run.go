package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Timings shared by the interactions.
const (
	SettleAfterAction = 500 * time.Millisecond
	ElementTimeout    = 3 * time.Second
	WaitForTimeout    = 5 * time.Second
)

// Target is the page the actions run against.
type Target interface {
	EvaluateScript(ctx context.Context, expr string, out any) error
	Click(ctx context.Context, selector string) error
	Hover(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	Wait(ctx context.Context, d time.Duration) error
}

// Run executes actions in order. A failing action is logged and the rest
// still run; only context cancellation stops the sequence.
func Run(ctx context.Context, t Target, list []Action) error {
	for i, a := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := runOne(ctx, t, a); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			log.Warn().Err(err).Int("index", i).Str("action", a.Name()).Msg("Page action failed")
			continue
		}
		log.Debug().Int("index", i).Str("action", a.Name()).Msg("Page action done")
	}
	return nil
}

func runOne(ctx context.Context, t Target, a Action) error {
	switch a := a.(type) {
	case Scroll:
		script := fmt.Sprintf("window.scrollTo({top: %d, behavior: 'smooth'})", a.Y)
		if err := t.EvaluateScript(ctx, script, nil); err != nil {
			return err
		}
		return t.Wait(ctx, SettleAfterAction)

	case Click:
		if err := t.WaitForSelector(ctx, a.Selector, ElementTimeout); err != nil {
			return fmt.Errorf("click %s: %w", a.Selector, err)
		}
		if err := t.Click(ctx, a.Selector); err != nil {
			return fmt.Errorf("click %s: %w", a.Selector, err)
		}
		return t.Wait(ctx, SettleAfterAction)

	case Wait:
		return t.Wait(ctx, a.Duration)

	case Hover:
		if err := t.WaitForSelector(ctx, a.Selector, ElementTimeout); err != nil {
			return fmt.Errorf("hover %s: %w", a.Selector, err)
		}
		if err := t.Hover(ctx, a.Selector); err != nil {
			return fmt.Errorf("hover %s: %w", a.Selector, err)
		}
		return t.Wait(ctx, SettleAfterAction)

	case TypeText:
		if err := t.WaitForSelector(ctx, a.Selector, ElementTimeout); err != nil {
			return fmt.Errorf("type into %s: %w", a.Selector, err)
		}
		if err := t.Type(ctx, a.Selector, a.Text); err != nil {
			return fmt.Errorf("type into %s: %w", a.Selector, err)
		}
		return t.Wait(ctx, SettleAfterAction)

	case RunScript:
		if err := t.EvaluateScript(ctx, WrapScript(a.Code), nil); err != nil {
			return fmt.Errorf("run script: %w", err)
		}
		log.Info().Str("code", a.Code).Msg("Executed page script")
		return t.Wait(ctx, SettleAfterAction)

	case WaitForSelector:
		if err := t.WaitForSelector(ctx, a.Selector, WaitForTimeout); err != nil {
			return fmt.Errorf("wait for %s: %w", a.Selector, err)
		}
		log.Info().Str("selector", a.Selector).Msg("Element appeared")
		return nil

	default:
		return fmt.Errorf("unsupported action %T", a)
	}
}

// WrapScript runs code as a function body and reports exceptions to the
// page console instead of failing the evaluation.
func WrapScript(code string) string {
	quoted, _ := json.Marshal(code)
	return fmt.Sprintf("(() => { try { new Function(%s)(); } catch (e) { console.error(e && e.message); } })()", quoted)
}
