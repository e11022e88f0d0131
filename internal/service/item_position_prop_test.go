package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/gift-exchange/internal/models"
	"github.com/gift-exchange/internal/types"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// opCode encodes one random mutation of a list's item sequence.
type opCode struct {
	Kind   int // 0 add, 1 delete, 2 receive, 3 move up, 4 move down
	Target int // index into the current item set, modulo its size
}

// Properties of the ordered item sequence under arbitrary operation mixes:
// active positions are always unique and strictly increasing, deletion
// always leaves a dense 1..N sequence, and relative order of the survivors
// never changes.
func TestItemPositionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	genOps := gen.SliceOf(gopter.CombineGens(
		gen.IntRange(0, 4),
		gen.IntRange(0, 63),
	).Map(func(vals []interface{}) opCode {
		return opCode{Kind: vals[0].(int), Target: vals[1].(int)}
	}))

	properties.Property("positions stay ordered and delete renumbers densely", prop.ForAll(
		func(ops []opCode) bool {
			f := newFixture()
			owner := f.addUser("Owner", "owner@example.com", false)
			list := f.ownedList(owner)
			ctx := context.Background()

			var all []int64 // IDs of items ever created, including deleted ones
			added := 0

			for _, op := range ops {
				switch op.Kind {
				case 0:
					added++
					item, err := f.itemSvc.Add(ctx, owner, list.ID, &ItemInput{
						Title: fmt.Sprintf("Item %d", added),
					})
					if err != nil {
						return false
					}
					all = append(all, item.ID)
				case 1, 2, 3, 4:
					if len(all) == 0 {
						continue
					}
					id := all[op.Target%len(all)]
					item, err := f.items.GetByID(ctx, id)
					if err != nil {
						return false
					}
					if item == nil {
						continue // already deleted
					}

					switch op.Kind {
					case 1:
						if err := f.itemSvc.Delete(ctx, owner, id); err != nil {
							return false
						}
						if !isDense(activeOf(f, list.ID)) {
							return false
						}
					case 2:
						if err := f.itemSvc.MarkReceived(ctx, owner, id); err != nil {
							return false
						}
					case 3, 4:
						dir := types.MoveUp
						if op.Kind == 4 {
							dir = types.MoveDown
						}
						err := f.itemSvc.Move(ctx, owner, id, dir)
						if err != nil && !types.IsCode(err, types.CodeInvalidInput) {
							return false
						}
					}
				}

				if !isStrictlyIncreasing(activeOf(f, list.ID)) {
					return false
				}
			}
			return true
		},
		genOps,
	))

	properties.Property("delete preserves relative order of survivors", prop.ForAll(
		func(size int, deleteIdx int) bool {
			f := newFixture()
			owner := f.addUser("Owner", "owner@example.com", false)
			list := f.ownedList(owner)
			ctx := context.Background()

			ids := make([]int64, 0, size)
			for i := 0; i < size; i++ {
				item, err := f.itemSvc.Add(ctx, owner, list.ID, &ItemInput{
					Title: fmt.Sprintf("Item %d", i),
				})
				if err != nil {
					return false
				}
				ids = append(ids, item.ID)
			}

			victim := ids[deleteIdx%size]
			if err := f.itemSvc.Delete(ctx, owner, victim); err != nil {
				return false
			}

			active := activeOf(f, list.ID)
			if !isDense(active) {
				return false
			}

			// Survivors appear in their original creation order.
			want := make([]int64, 0, size-1)
			for _, id := range ids {
				if id != victim {
					want = append(want, id)
				}
			}
			if len(active) != len(want) {
				return false
			}
			for i, it := range active {
				if it.ID != want[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 20),
		gen.IntRange(0, 1<<30),
	))

	properties.TestingRun(t)
}

func activeOf(f *fixture, listID int64) []*models.Item {
	active, _ := f.items.ListActiveByList(context.Background(), listID)
	return active
}

func isStrictlyIncreasing(items []*models.Item) bool {
	for i := 1; i < len(items); i++ {
		if items[i].Position <= items[i-1].Position {
			return false
		}
	}
	return true
}

func isDense(items []*models.Item) bool {
	for i, it := range items {
		if it.Position != i+1 {
			return false
		}
	}
	return true
}
