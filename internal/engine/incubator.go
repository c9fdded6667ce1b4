package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"bmad/internal/storage"
)

// SpawnEggCost is the energy price of a new egg.
const SpawnEggCost = 10

// rarityWeights drive the spawn roll, heaviest first. Order matches Rarities.
var rarityWeights = []int{40, 25, 15, 10, 6, 3, 1}

// rarityDuration maps rarity to incubation time.
func rarityDuration(rarity string) time.Duration {
	switch rarity {
	case "divine":
		return 6 * time.Hour
	case "mythic":
		return 3 * time.Hour
	case "legendary":
		return time.Hour
	case "epic":
		return 30 * time.Minute
	case "rare":
		return 10 * time.Minute
	case "uncommon":
		return 3 * time.Minute
	default:
		return time.Minute
	}
}

var petTypes = []string{"slime", "sprout", "ember", "ripple", "wisp", "dragon"}

func rollRarity(roll int) string {
	for i, w := range rarityWeights {
		if roll < w {
			return Rarities[i]
		}
		roll -= w
	}
	return Rarities[0]
}

var eggStatusRank = map[EggStatus]int{
	EggNew:        0,
	EggIncubating: 1,
	EggReady:      2,
	EggHatched:    3,
}

// advanceEgg moves an egg exactly one step forward; anything else is a
// state violation.
func (s *Service) advanceEgg(ctx context.Context, id string, to EggStatus, extra storage.Doc) (Egg, error) {
	doc, err := s.eggs.FindOne(ctx, id)
	if err != nil {
		return Egg{}, err
	}
	if doc == nil {
		return Egg{}, &storage.NotFoundError{Collection: ColEggs, ID: id}
	}
	egg, err := docAs[Egg](doc)
	if err != nil {
		return Egg{}, err
	}
	if eggStatusRank[to] != eggStatusRank[egg.Status]+1 {
		return Egg{}, StateError{Entity: "egg", From: string(egg.Status), To: string(to)}
	}

	fields := storage.Doc{"status": string(to)}
	for k, v := range extra {
		fields[k] = v
	}
	updated, err := s.eggs.Patch(ctx, id, fields)
	if err != nil {
		return Egg{}, fmt.Errorf("advance egg: %w", err)
	}
	return docAs[Egg](updated)
}

// SpawnEgg spends energy to create a new egg with a rolled rarity.
func (s *Service) SpawnEgg(ctx context.Context) (Egg, error) {
	if err := s.SpendEnergy(ctx, SpawnEggCost); err != nil {
		return Egg{}, err
	}
	total := 0
	for _, w := range rarityWeights {
		total += w
	}
	egg := Egg{
		ID:        uuid.NewString(),
		Status:    EggNew,
		Rarity:    rollRarity(rand.Intn(total)),
		CreatedAt: s.now().UnixMilli(),
	}
	if _, err := s.eggs.Insert(ctx, toDoc(egg)); err != nil {
		return Egg{}, fmt.Errorf("spawn egg: %w", err)
	}
	return egg, nil
}

// IncubateEgg starts incubation; the hatch time follows the rarity table.
func (s *Service) IncubateEgg(ctx context.Context, id string) (Egg, error) {
	duration := time.Duration(0)
	doc, err := s.eggs.FindOne(ctx, id)
	if err != nil {
		return Egg{}, err
	}
	if doc != nil {
		rarity, _ := doc["rarity"].(string)
		duration = rarityDuration(rarity)
	}
	return s.advanceEgg(ctx, id, EggIncubating, storage.Doc{
		"hatchTime":          float64(s.now().Add(duration).UnixMilli()),
		"incubationDuration": float64(duration.Milliseconds()),
	})
}

// MarkReady flags an incubating egg whose hatch time has arrived.
func (s *Service) MarkReady(ctx context.Context, id string) (Egg, error) {
	return s.advanceEgg(ctx, id, EggReady, nil)
}

// FastForwardEgg pulls the hatch time into the past (dev helper).
func (s *Service) FastForwardEgg(ctx context.Context, id string) error {
	_, err := s.eggs.Patch(ctx, id, storage.Doc{
		"hatchTime": float64(s.now().Add(-time.Second).UnixMilli()),
	})
	if err != nil {
		return fmt.Errorf("fast-forward egg: %w", err)
	}
	return nil
}

// HatchEgg turns a ready egg into a pet. The egg records the pet reference,
// then is deleted; the pet itself is never deleted by this subsystem.
func (s *Service) HatchEgg(ctx context.Context, id string, name string) (Pet, error) {
	doc, err := s.eggs.FindOne(ctx, id)
	if err != nil {
		return Pet{}, err
	}
	if doc == nil {
		return Pet{}, &storage.NotFoundError{Collection: ColEggs, ID: id}
	}
	egg, err := docAs[Egg](doc)
	if err != nil {
		return Pet{}, err
	}
	if egg.Status != EggReady {
		return Pet{}, StateError{Entity: "egg", From: string(egg.Status), To: string(EggHatched)}
	}

	pet := Pet{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      petTypes[rand.Intn(len(petTypes))],
		Rarity:    egg.Rarity,
		CreatedAt: s.now().UnixMilli(),
	}
	if pet.Name == "" {
		pet.Name = pet.Type
	}
	if _, err := s.pets.Insert(ctx, toDoc(pet)); err != nil {
		return Pet{}, fmt.Errorf("hatch egg: create pet: %w", err)
	}
	if _, err := s.eggs.Patch(ctx, id, storage.Doc{"status": string(EggHatched), "petId": pet.ID}); err != nil {
		return Pet{}, fmt.Errorf("hatch egg: stamp pet id: %w", err)
	}
	if err := s.eggs.Remove(ctx, id); err != nil {
		return Pet{}, fmt.Errorf("hatch egg: remove egg: %w", err)
	}
	return pet, nil
}

// Eggs lists all eggs, oldest first.
func (s *Service) Eggs(ctx context.Context) ([]Egg, error) {
	docs, err := s.eggs.Find(ctx, storage.Query{Sort: []storage.SortField{{Field: "createdAt"}}})
	if err != nil {
		return nil, err
	}
	return docsAs[Egg](docs)
}

// Pets lists the collection, oldest first.
func (s *Service) Pets(ctx context.Context) ([]Pet, error) {
	docs, err := s.pets.Find(ctx, storage.Query{Sort: []storage.SortField{{Field: "createdAt"}}})
	if err != nil {
		return nil, err
	}
	return docsAs[Pet](docs)
}

// ActiveIncubationCount counts eggs currently incubating.
func (s *Service) ActiveIncubationCount(ctx context.Context) (int, error) {
	return s.eggs.Count(ctx, func(doc storage.Doc) bool {
		status, _ := doc["status"].(string)
		return status == string(EggIncubating)
	})
}
