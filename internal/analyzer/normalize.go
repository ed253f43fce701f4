package analyzer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/and161185/nutrikeeper/internal/model"
)

// CookingMethods is the fixed cooking-method vocabulary.
var CookingMethods = []string{
	"raw", "boiled", "steamed", "fried", "deep_fried", "grilled",
	"baked", "roasted", "stewed", "sauteed", "smoked", "other",
}

var cookingAliases = map[string]string{
	"pan_fried":  "fried",
	"stir_fried": "fried",
	"deepfried":  "deep_fried",
	"sautéed":    "sauteed",
	"sauted":     "sauteed",
	"broiled":    "grilled",
	"bbq":        "grilled",
	"poached":    "boiled",
	"braised":    "stewed",
	"fresh":      "raw",
}

// Normalize extracts a Suggestion from whatever the provider returned.
// Unknown fields are ignored; malformed or negative values become nil.
func Normalize(raw model.Document) model.Suggestion {
	if len(raw) == 0 {
		return model.Suggestion{}
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return model.Suggestion{}
	}
	root := gjson.ParseBytes(b)
	if inner := root.Get("result"); inner.IsObject() {
		root = inner
	}

	macros := root.Get("macros")
	if !macros.IsObject() {
		macros = root.Get("nutrients")
	}

	return model.Suggestion{
		Title:              str(root, "title", "name", "dish"),
		TotalKcal:          num(root, "total_kcal", "calories", "kcal", "energy_kcal"),
		PortionWeightGrams: num(root, "portion_weight_grams", "portion_weight.grams", "portion_weight_g", "weight_g"),
		PortionWeightOz:    num(root, "portion_weight_oz", "portion_weight.oz"),
		CookingMethod:      cooking(root.Get("cooking_method")),
		SatietyHours:       num(root, "satiety_hours", "satiety.hours", "satiety_duration_hours"),
		Ingredients:        names(root.Get("ingredients")),
		Macros: model.MacroValues{
			ProteinG: num(macros, "protein_g", "protein", "proteins_g"),
			FatG:     num(macros, "fat_g", "fat", "fats_g"),
			CarbsG:   num(macros, "carbohydrates_g", "carbs_g", "carbohydrates", "carbs"),
			SugarG:   num(macros, "sugar_g", "sugars_g", "sugar"),
			FiberG:   num(macros, "fiber_g", "fibre_g", "fiber", "fibre"),
			SaltG:    num(macros, "salt_g", "salt"),
			WaterG:   num(macros, "water_g", "water_ml", "water"),
		},
	}
}

func lookup(v gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := v.Get(p); r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

func num(v gjson.Result, paths ...string) *float64 {
	r := lookup(v, paths...)
	var f float64
	switch r.Type {
	case gjson.Number:
		f = r.Num
	case gjson.String:
		fields := strings.Fields(strings.ReplaceAll(r.Str, ",", "."))
		if len(fields) == 0 {
			return nil
		}
		parsed, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	// NaN and infinities cannot be stored in jsonb
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func str(v gjson.Result, paths ...string) *string {
	r := lookup(v, paths...)
	if r.Type != gjson.String {
		return nil
	}
	s := strings.TrimSpace(r.Str)
	if s == "" {
		return nil
	}
	return &s
}

func cooking(r gjson.Result) *string {
	if r.Type != gjson.String || strings.TrimSpace(r.Str) == "" {
		return nil
	}
	key := strings.ToLower(strings.TrimSpace(r.Str))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if alias, ok := cookingAliases[key]; ok {
		key = alias
	}
	for _, m := range CookingMethods {
		if m == key {
			return &key
		}
	}
	other := "other"
	return &other
}

func names(r gjson.Result) []string {
	if !r.IsArray() {
		return nil
	}
	out := []string{}
	r.ForEach(func(_, item gjson.Result) bool {
		var name string
		switch {
		case item.Type == gjson.String:
			name = item.Str
		case item.IsObject():
			name = item.Get("name").String()
		}
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
		return true
	})
	return out
}
