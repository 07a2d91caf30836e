package catalog

import (
	"context"
	"time"

	"bookshelf/internal/repo"
	"bookshelf/internal/resource"

	"github.com/gosimple/slug"
)

const Posts = "posts"

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

var PostsTable = repo.Table{
	Name: "tb_posts",
	Columns: []repo.Column{
		{Field: "title"},
		{Field: "content"},
		{Field: "status", Default: repo.Const(StatusDraft)},
		{Field: "slug", Unique: true},
		{Field: "author", Name: "author_id"},
		{Field: "create_time", Default: repo.Now},
		{Field: "update_time", Default: repo.Now},
	},
}

// PostSchema declares the post resource. The author is the caller that
// created the post; tags backs the computed "tag_set" field.
func PostSchema(tags resource.Store) *resource.Schema {
	return &resource.Schema{
		Name:  Posts,
		Label: "post",
		Fields: []resource.Field{
			{Name: "title", Kind: resource.KindString, Required: true, MaxLength: 100, Filterable: true},
			{Name: "content", Kind: resource.KindString, Required: true},
			{
				Name:       "status",
				Kind:       resource.KindString,
				Default:    StatusDraft,
				Choices:    []any{StatusDraft, StatusPublished},
				Filterable: true,
			},
			{
				Name:       "slug",
				Kind:       resource.KindString,
				Default:    "",
				AllowBlank: true,
				MaxLength:  200,
				Unique:     true,
				Clean:      slugify,
			},
			{
				Name:       "author",
				Kind:       resource.KindRef,
				ReadOnly:   true,
				Filterable: true,
				Link:       true,
				Ref:        &resource.Relation{Resource: Users},
			},
			{Name: "create_time", Kind: resource.KindDateTime, ReadOnly: true},
			{Name: "update_time", Kind: resource.KindDateTime, ReadOnly: true},
		},
		Computed: []resource.ComputedField{
			{Name: "tag_set", Func: tagNames(tags)},
		},
		IdentityLink:   true,
		OrderingFields: []string{"title", "create_time", "update_time"},
		Validate:       slugFromTitle,
		BeforeSave:     stampPost,
	}
}

func slugify(value any) any {
	s, _ := value.(string)
	return slug.Make(s)
}

// slugFromTitle fills a blank slug from the title.
func slugFromTitle(_ context.Context, attrs, existing resource.Attrs) error {
	if s, ok := attrs["slug"].(string); !ok || s != "" {
		return nil
	}
	title, ok := attrs["title"].(string)
	if !ok {
		title, _ = existing["title"].(string)
	}
	attrs["slug"] = slug.Make(title)
	return nil
}

// stampPost sets the author on create and the update time on every write.
func stampPost(_ context.Context, req resource.Request, attrs resource.Attrs, mode resource.Mode) error {
	if mode == resource.ModeCreate {
		if req.Actor == nil {
			return resource.Deny(nil)
		}
		attrs["author"] = req.Actor.ID
	}
	attrs["update_time"] = time.Now().UTC()
	return nil
}

func tagNames(tags resource.Store) func(context.Context, resource.Request, resource.Attrs) (any, error) {
	return func(ctx context.Context, _ resource.Request, post resource.Attrs) (any, error) {
		list, _, err := tags.List(ctx, resource.Query{
			Filters:  map[string]any{"posts": post.ID()},
			Ordering: []resource.Order{{Field: "id"}},
		})
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(list))
		for _, t := range list {
			if name, ok := t["name"].(string); ok {
				names = append(names, name)
			}
		}
		return names, nil
	}
}
