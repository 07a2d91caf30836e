package catalog

import (
	"bookshelf/internal/repo"
	"bookshelf/internal/resource"
)

const Tags = "tags"

var TagsTable = repo.Table{
	Name: "tb_tags",
	Columns: []repo.Column{
		{Field: "name"},
		{Field: "posts", Name: "post_ids", Array: true, Default: repo.Const([]int64{})},
	},
}

// TagSchema declares the tag resource. A tag lists the posts it labels;
// posts resolves those references.
func TagSchema(posts resource.Store) *resource.Schema {
	return &resource.Schema{
		Name:  Tags,
		Label: "tag",
		Fields: []resource.Field{
			{Name: "name", Kind: resource.KindString, Required: true, MaxLength: 100, Filterable: true},
			{
				Name:       "posts",
				Kind:       resource.KindRefList,
				Default:    []int64{},
				Filterable: true,
				Link:       true,
				Ref:        &resource.Relation{Resource: Posts, Store: posts},
			},
		},
		IdentityLink:   true,
		OrderingFields: []string{"name"},
	}
}
