package catalog

import (
	"context"

	"bookshelf/internal/repo"
	"bookshelf/internal/resource"
)

const Heroes = "heroes"

const (
	GenderMale   = 0
	GenderFemale = 1
)

var genderNames = map[int64]string{GenderMale: "male", GenderFemale: "female"}

var HeroesTable = repo.Table{
	Name: "tb_heros",
	Columns: []repo.Column{
		{Field: "hname"},
		{Field: "hgender", Default: repo.Const(int64(GenderMale))},
		{Field: "hcomment"},
		{Field: "hbook", Name: "hbook_id"},
		{Field: "is_delete", Default: repo.Const(false)},
	},
	SoftDelete: "is_delete",
}

// HeroSchema declares the hero resource. books resolves the hbook reference.
func HeroSchema(books resource.Store) *resource.Schema {
	return &resource.Schema{
		Name:  Heroes,
		Label: "hero",
		Fields: []resource.Field{
			{Name: "hname", Kind: resource.KindString, Required: true, MaxLength: 20, Filterable: true},
			{Name: "hgender", Kind: resource.KindInt, Choices: []any{GenderMale, GenderFemale}},
			{Name: "hcomment", Kind: resource.KindString, Nullable: true, AllowBlank: true, MaxLength: 200},
			{
				Name:       "hbook",
				Kind:       resource.KindRef,
				Required:   true,
				Filterable: true,
				Link:       true,
				Ref:        &resource.Relation{Resource: Books, Store: books},
			},
			{Name: "is_delete", Kind: resource.KindBool, ReadOnly: true},
		},
		Computed: []resource.ComputedField{
			{Name: "hgender_display", Func: genderDisplay},
		},
		IdentityLink:    true,
		SoftDeleteField: "is_delete",
		OrderingFields:  []string{"hname", "hgender"},
	}
}

func genderDisplay(_ context.Context, _ resource.Request, hero resource.Attrs) (any, error) {
	g, _ := hero["hgender"].(int64)
	return genderNames[g], nil
}
