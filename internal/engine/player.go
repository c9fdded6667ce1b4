package engine

import (
	"context"
	"fmt"
	"log"

	"bmad/internal/storage"
)

// PlayerID is the fixed id of the singleton progression document.
const PlayerID = "player"

// Player returns the current progression state.
func (s *Service) Player(ctx context.Context) (User, error) {
	doc, err := s.users.FindOne(ctx, PlayerID)
	if err != nil {
		return User{}, err
	}
	if doc == nil {
		return User{}, &storage.NotFoundError{Collection: ColUsers, ID: PlayerID}
	}
	return docAs[User](doc)
}

// AddEnergy credits spendable energy (task completions award their points).
func (s *Service) AddEnergy(ctx context.Context, amount float64) error {
	if amount <= 0 {
		return nil
	}
	_, err := s.users.IncrementalModify(ctx, PlayerID, func(doc storage.Doc) storage.Doc {
		doc["energy"] = num(doc["energy"]) + amount
		return doc
	})
	if err != nil {
		return fmt.Errorf("add energy: %w", err)
	}
	return nil
}

// SpendEnergy debits energy, rejecting a spend that would go negative. The
// read-check-write runs inside the collection's atomic modify, so two
// spends racing in the same tick cannot both succeed on one balance.
func (s *Service) SpendEnergy(ctx context.Context, amount float64) error {
	if amount <= 0 {
		return nil
	}
	var insufficient *InsufficientEnergyError
	_, err := s.users.IncrementalModify(ctx, PlayerID, func(doc storage.Doc) storage.Doc {
		have := num(doc["energy"])
		if have < amount {
			insufficient = &InsufficientEnergyError{Have: have, Want: amount}
			return doc
		}
		doc["energy"] = have - amount
		return doc
	})
	if err != nil {
		return fmt.Errorf("spend energy: %w", err)
	}
	if insufficient != nil {
		return *insufficient
	}
	return nil
}

// SubscribePlayer streams progression changes, current value first.
func (s *Service) SubscribePlayer(fn func(User)) (cancel func()) {
	return s.users.SubscribeOne(PlayerID, func(doc storage.Doc) {
		if doc == nil {
			return
		}
		u, err := docAs[User](doc)
		if err != nil {
			log.Printf("player: decode: %v", err)
			return
		}
		fn(u)
	})
}
