package catalog

import (
	"context"

	"bookshelf/internal/repo"
	"bookshelf/internal/resource"
)

const Books = "books"

// NovelTitles are the titles a book may carry.
var NovelTitles = []string{
	"飞狐外传", "雪山飞狐", "连城诀", "天龙八部",
	"射雕英雄传", "白马啸西风", "鹿鼎记", "笑傲江湖",
	"书剑恩仇录", "神雕侠侣", "侠客行", "倚天屠龙记",
	"碧血剑", "鸳鸯刀", "越女剑",
}

var BooksTable = repo.Table{
	Name: "tb_books",
	Columns: []repo.Column{
		{Field: "btitle", Unique: true},
		{Field: "bpub_date"},
		{Field: "bread", Default: repo.Const(int64(0))},
		{Field: "bcomment", Default: repo.Const(int64(0))},
		{Field: "image", Default: repo.Const("")},
		{Field: "is_delete", Default: repo.Const(false)},
	},
	SoftDelete: "is_delete",
}

var zero = int64(0)

// BookSchema declares the book resource. heroes backs the computed
// "heroes" field.
func BookSchema(heroes resource.Store) *resource.Schema {
	return &resource.Schema{
		Name:  Books,
		Label: "book",
		Fields: []resource.Field{
			{
				Name:       "btitle",
				Kind:       resource.KindString,
				Required:   true,
				MaxLength:  20,
				Unique:     true,
				Filterable: true,
				Validators: []resource.Validator{
					OneOf("This book is not one of Jin Yong's novels.", NovelTitles),
				},
			},
			{Name: "bpub_date", Kind: resource.KindDate, Required: true},
			{Name: "bread", Kind: resource.KindInt, MinValue: &zero, Filterable: true},
			{Name: "bcomment", Kind: resource.KindInt, MinValue: &zero},
			{Name: "image", Kind: resource.KindString, AllowBlank: true, MaxLength: 100},
			{Name: "is_delete", Kind: resource.KindBool, ReadOnly: true},
		},
		Computed: []resource.ComputedField{
			{Name: "heroes", Func: heroNames(heroes)},
		},
		IdentityLink:    true,
		SoftDeleteField: "is_delete",
		OrderingFields:  []string{"btitle", "bpub_date", "bread", "bcomment"},
	}
}

func heroNames(heroes resource.Store) func(context.Context, resource.Request, resource.Attrs) (any, error) {
	return func(ctx context.Context, _ resource.Request, book resource.Attrs) (any, error) {
		list, _, err := heroes.List(ctx, resource.Query{
			Filters:  map[string]any{"hbook": book.ID()},
			Ordering: []resource.Order{{Field: "id"}},
		})
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(list))
		for _, h := range list {
			if name, ok := h["hname"].(string); ok {
				names = append(names, name)
			}
		}
		return names, nil
	}
}
