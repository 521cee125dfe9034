package exchange

import (
	"context"
	"fmt"
	"sort"

	"github.com/sharedview/sharedview/internal/util"
	"github.com/sharedview/sharedview/pkg/log"
	"github.com/sharedview/sharedview/pkg/psi"
	"github.com/sharedview/sharedview/pkg/segment"
)

// IntersectIncremental runs one micro exchange per element through a
// bounded worker pool instead of one bulk round trip. Micro exchanges are
// independent and complete in no particular order; the aggregate membership
// set is owned by a single collector routine, and the result is returned
// only after every micro exchange finished, so reconstruction passes that
// depend on cross element relationships can run on it directly.
//
// A transport failure on any micro exchange aborts the whole run. Only the
// protocol's explicit non-membership status counts as "not shared".
func (i *Initiator) IntersectIncremental(ctx context.Context, elements []segment.Element) (*psi.Result, error) {
	logger := log.GetLoggerFromContextWithName(ctx, "incremental")
	n := int64(len(elements))
	logger.V(1).Info("Starting micro exchanges", "elements", n, "workers", i.cfg.Workers)

	type hit struct {
		index  int64
		member bool
	}
	var hits = make(chan hit)
	var collected = make(chan *psi.Result)

	// single owner of the aggregate membership set
	go func() {
		var result = &psi.Result{Reveal: i.cfg.Reveal}
		var done int64
		for h := range hits {
			done++
			if h.member {
				result.Size++
				if i.cfg.Reveal == psi.RevealMembership {
					result.Members = append(result.Members, h.index)
				}
			}
			i.cfg.Observer.Progress(done, n)
		}
		sort.Slice(result.Members, func(a, b int) bool {
			return result.Members[a] < result.Members[b]
		})
		collected <- result
	}()

	poolErr := util.Pool(ctx, i.cfg.Workers, n, func(index int64) error {
		qctx := ctx
		if i.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			qctx, cancel = context.WithTimeout(ctx, i.cfg.Timeout)
			defer cancel()
		}
		_, member, err := i.t.Query(qctx, index, elements[index].Canon)
		if err != nil {
			return fmt.Errorf("micro exchange %d: %w", index, err)
		}
		hits <- hit{index: index, member: member}
		return nil
	})

	// barrier: every micro exchange accounted for before the result exists
	close(hits)
	result := <-collected

	if poolErr != nil {
		i.cfg.Observer.Failure(poolErr)
		return nil, poolErr
	}
	if err := validateResult(result, n); err != nil {
		i.cfg.Observer.Failure(err)
		return nil, err
	}
	logger.V(1).Info("Finish micro exchanges", "size", result.Size)
	i.cfg.Observer.Complete(result)
	return result, nil
}
