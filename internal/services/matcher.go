package services

import "fmt"

type MatchAction int

const (
	ActionInsert MatchAction = iota
	ActionUpdate
)

func (a MatchAction) String() string {
	if a == ActionUpdate {
		return "update"
	}
	return "insert"
}

// MatchRef describes one incoming entity: its client-supplied id (0 when
// absent) and its natural key within the scope ("" disables the fallback).
type MatchRef struct {
	ID  int64
	Key string
}

type MatchDecision struct {
	Action MatchAction
	// ID is the persisted record to update.
	ID int64
	// ByKey is set when the record was found through the key fallback.
	ByKey bool
}

type MatchPlan struct {
	// Decisions holds one entry per incoming ref, in the same order.
	Decisions []MatchDecision
	// Unmatched lists persisted ids that no incoming ref claimed.
	Unmatched []int64
}

// MatchEntities decides insert or update for every incoming ref against
// the persisted records of one scope. Ids are matched first; refs without
// a usable id fall back to the key. A persisted record already claimed by
// id is not matched again by key, since its claimant carries a different
// key and is renaming it.
//
// Keys must be unique among the incoming refs. Two persisted records with
// the same key make the fallback ambiguous and fail with
// ErrConflictOnMatch.
func MatchEntities[T any](kind string, persisted []T, idOf func(T) int64, keyOf func(T) string, incoming []MatchRef) (MatchPlan, error) {
	known := make(map[int64]bool, len(persisted))
	byKey := make(map[string][]int64, len(persisted))
	order := make([]int64, 0, len(persisted))
	for _, p := range persisted {
		id := idOf(p)
		known[id] = true
		order = append(order, id)
		if key := keyOf(p); key != "" {
			byKey[key] = append(byKey[key], id)
		}
	}

	seenKey := make(map[string]int, len(incoming))
	for i, ref := range incoming {
		if ref.Key == "" {
			continue
		}
		if j, ok := seenKey[ref.Key]; ok {
			return MatchPlan{}, &EntityError{
				Kind:  kind,
				Index: i,
				Err:   fmt.Errorf("%w: %q duplicates entry %d", ErrInvalidArgument, ref.Key, j),
			}
		}
		seenKey[ref.Key] = i
	}

	plan := MatchPlan{Decisions: make([]MatchDecision, len(incoming))}
	claimed := make(map[int64]int, len(incoming))
	resolved := make([]bool, len(incoming))

	for i, ref := range incoming {
		if ref.ID == 0 || !known[ref.ID] {
			continue
		}
		if j, ok := claimed[ref.ID]; ok {
			return MatchPlan{}, &EntityError{
				Kind:  kind,
				Index: i,
				Err:   fmt.Errorf("%w: id %d duplicates entry %d", ErrInvalidArgument, ref.ID, j),
			}
		}
		claimed[ref.ID] = i
		plan.Decisions[i] = MatchDecision{Action: ActionUpdate, ID: ref.ID}
		resolved[i] = true
	}

	for i, ref := range incoming {
		if resolved[i] {
			continue
		}
		plan.Decisions[i] = MatchDecision{Action: ActionInsert}
		if ref.Key == "" {
			continue
		}

		candidates := byKey[ref.Key]
		if len(candidates) > 1 {
			return MatchPlan{}, &EntityError{
				Kind:  kind,
				Index: i,
				Err:   fmt.Errorf("%w: %d existing records named %q", ErrConflictOnMatch, len(candidates), ref.Key),
			}
		}
		if len(candidates) == 0 {
			continue
		}
		if _, taken := claimed[candidates[0]]; taken {
			continue
		}
		claimed[candidates[0]] = i
		plan.Decisions[i] = MatchDecision{Action: ActionUpdate, ID: candidates[0], ByKey: true}
	}

	for _, id := range order {
		if _, ok := claimed[id]; !ok {
			plan.Unmatched = append(plan.Unmatched, id)
		}
	}

	return plan, nil
}
