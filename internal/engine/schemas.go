package engine

import "bmad/internal/storage"

// Collection names.
const (
	ColTasks     = "tasks"
	ColSettings  = "settings"
	ColDailyLogs = "daily_logs"
	ColEggs      = "eggs"
	ColPets      = "pets"
	ColUsers     = "users"
)

// DefaultDailyLimit is the capacity threshold seeded for new installs.
const DefaultDailyLimit = 100

// Schemas declares every collection: field sets, current versions and the
// full migration chains. Each migration step supplies a total default for
// the field it introduces; a step never assumes the old field was present.
func Schemas() []storage.Schema {
	return []storage.Schema{
		{
			Name:    ColTasks,
			Version: 1,
			Fields: map[string]storage.Field{
				"title":     {Type: storage.FieldString, Required: true},
				"status":    {Type: storage.FieldString, Required: true, Default: "active", Enum: []string{"active", "completed", "archived"}},
				"points":    {Type: storage.FieldNumber, Required: true, Minimum: storage.Min(0)},
				"createdAt": {Type: storage.FieldNumber, Required: true},
				"order":     {Type: storage.FieldNumber, Default: float64(0)},
			},
			Migrations: map[int]storage.Migration{
				// v0 -> v1: manual sort position.
				1: addField("order", float64(0)),
			},
		},
		{
			Name:    ColSettings,
			Version: 1,
			Fields: map[string]storage.Field{
				"dailyLimit":     {Type: storage.FieldNumber, Required: true, Default: float64(DefaultDailyLimit)},
				"soundEnabled":   {Type: storage.FieldBoolean, Required: true, Default: true},
				"hapticsEnabled": {Type: storage.FieldBoolean, Required: true, Default: true},
				"fontSize":       {Type: storage.FieldString, Default: "medium", Enum: []string{"small", "medium", "large"}},
			},
			Migrations: map[int]storage.Migration{
				// v0 -> v1: font size preference.
				1: addField("fontSize", "medium"),
			},
		},
		{
			Name:    ColDailyLogs,
			Version: 2,
			Fields: map[string]storage.Field{
				"date":           {Type: storage.FieldNumber, Required: true},
				"totalPoints":    {Type: storage.FieldNumber, Required: true, Default: float64(0), Minimum: storage.Min(0)},
				"tasksCompleted": {Type: storage.FieldNumber, Required: true, Default: float64(0), Minimum: storage.Min(0)},
				"overloadCount":  {Type: storage.FieldNumber, Required: true, Default: float64(0), Minimum: storage.Min(0)},
				"records":        {Type: storage.FieldArray, Default: []any{}},
			},
			Migrations: map[int]storage.Migration{
				// v0 -> v1: append-only history.
				1: addField("records", []any{}),
				// v1 -> v2: schema alignment only, records already present.
				2: identity,
			},
		},
		{
			Name:    ColEggs,
			Version: 3,
			Fields: map[string]storage.Field{
				"status":             {Type: storage.FieldString, Required: true, Default: "new", Enum: []string{"new", "incubating", "ready", "hatched"}},
				"hatchTime":          {Type: storage.FieldNumber, Minimum: storage.Min(0)},
				"incubationDuration": {Type: storage.FieldNumber, Minimum: storage.Min(0), Default: float64(0)},
				"petId":              {Type: storage.FieldString},
				"rarity":             {Type: storage.FieldString, Default: "common", Enum: Rarities},
				"createdAt":          {Type: storage.FieldNumber, Required: true, Minimum: storage.Min(0)},
			},
			Migrations: map[int]storage.Migration{
				1: addField("rarity", "common"),
				2: identity,
				3: addField("incubationDuration", float64(0)),
			},
		},
		{
			Name:    ColPets,
			Version: 0,
			Fields: map[string]storage.Field{
				"name":      {Type: storage.FieldString, Required: true},
				"type":      {Type: storage.FieldString, Required: true},
				"rarity":    {Type: storage.FieldString, Required: true},
				"image":     {Type: storage.FieldString, Default: ""},
				"createdAt": {Type: storage.FieldNumber, Required: true, Minimum: storage.Min(0)},
			},
		},
		{
			Name:    ColUsers,
			Version: 0,
			Fields: map[string]storage.Field{
				"energy": {Type: storage.FieldNumber, Required: true, Default: float64(0), Minimum: storage.Min(0)},
				"level":  {Type: storage.FieldNumber, Required: true, Default: float64(1), Minimum: storage.Min(1)},
				"xp":     {Type: storage.FieldNumber, Required: true, Default: float64(0), Minimum: storage.Min(0)},
			},
		},
	}
}

func addField(name string, value any) storage.Migration {
	return func(doc storage.Doc) storage.Doc {
		out := make(storage.Doc, len(doc)+1)
		for k, v := range doc {
			out[k] = v
		}
		if _, ok := out[name]; !ok {
			out[name] = value
		}
		return out
	}
}

func identity(doc storage.Doc) storage.Doc { return doc }
