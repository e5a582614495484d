package naming

import "testing"

func TestParseConvention(t *testing.T) {
	tests := []struct {
		input   string
		want    Convention
		wantErr bool
	}{
		{"PascalCase", PascalCase, false},
		{"camelCase", CamelCase, false},
		{"snake_case", SnakeCase, false},
		{" snake ", SnakeCase, false},
		{"kebab-case", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseConvention(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseConvention(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseConvention(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestToTableName(t *testing.T) {
	tests := []struct {
		slug   string
		conv   Convention
		prefix string
		want   string
	}{
		{"tag", PascalCase, "", "Tag"},
		{"blog-post", PascalCase, "", "BlogPost"},
		{"blog-post", CamelCase, "", "blogPost"},
		{"blog-post", SnakeCase, "", "blog_post"},
		{"blog-post", PascalCase, "cms", "CmsBlogPost"},
		{"blog-post", SnakeCase, "cms", "cms_blog_post"},
		{"blog-post", CamelCase, "cms", "cmsBlogPost"},
	}

	for _, tt := range tests {
		t.Run(string(tt.conv)+"/"+tt.slug+"/"+tt.prefix, func(t *testing.T) {
			if got := ToTableName(tt.slug, tt.conv, tt.prefix); got != tt.want {
				t.Errorf("ToTableName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToTranslationTableName(t *testing.T) {
	tests := []struct {
		table   string
		pattern string
		conv    Convention
		want    string
	}{
		{"Post", "", PascalCase, "PostTranslation"},
		{"PostSeo", "${identifier}Translation", PascalCase, "PostSeoTranslation"},
		{"post_seo", "${identifier}Translation", SnakeCase, "post_seo_translation"},
		{"Post", "${identifier}I18n", PascalCase, "PostI18n"},
		{"post", "i18n_${identifier}", SnakeCase, "i18n_post"},
	}

	for _, tt := range tests {
		t.Run(tt.table+tt.pattern, func(t *testing.T) {
			if got := ToTranslationTableName(tt.table, tt.pattern, tt.conv); got != tt.want {
				t.Errorf("ToTranslationTableName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		conv  Convention
		parts []string
		want  string
	}{
		{PascalCase, []string{"Post", "Category"}, "PostCategory"},
		{PascalCase, []string{"Post", "seo"}, "PostSeo"},
		{PascalCase, []string{"Page", "hero_slide"}, "PageHeroSlide"},
		{CamelCase, []string{"post", "category"}, "postCategory"},
		{SnakeCase, []string{"post", "category"}, "post_category"},
		{SnakeCase, []string{"blog_post", "seo"}, "blog_post_seo"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Join(tt.conv, tt.parts...); got != tt.want {
				t.Errorf("Join(%v) = %q, want %q", tt.parts, got, tt.want)
			}
		})
	}
}

func TestResolver(t *testing.T) {
	r := Resolver{}.WithDefaults()

	if got := r.Table("post"); got != "Post" {
		t.Errorf("Table() = %q", got)
	}
	if got := r.ForeignKey("PostSeo"); got != "post_seo_id" {
		t.Errorf("ForeignKey() = %q", got)
	}
	if got := r.RelationField("PostSeo"); got != "post_seo" {
		t.Errorf("RelationField() = %q", got)
	}
	if got := r.IDColumn("author"); got != "author_id" {
		t.Errorf("IDColumn() = %q", got)
	}
	if got := r.IDColumn("owner_id"); got != "owner_id" {
		t.Errorf("IDColumn() = %q", got)
	}
	if got := r.Translation("PostSeo"); got != "PostSeoTranslation" {
		t.Errorf("Translation() = %q", got)
	}
	if got := r.Physical("PostSeoTranslation"); got != "post_seo_translation" {
		t.Errorf("Physical() = %q", got)
	}

	camel := Resolver{Columns: CamelCase}.WithDefaults()
	if got := camel.ForeignKey("PostSeo"); got != "postSeoId" {
		t.Errorf("camel ForeignKey() = %q", got)
	}
	if got := camel.Column("created_at"); got != "createdAt" {
		t.Errorf("camel Column() = %q", got)
	}
}
