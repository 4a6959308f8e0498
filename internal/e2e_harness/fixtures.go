package e2e_harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/bcms/bcms"
)

// ContentWriter is implemented by the document repositories.
type ContentWriter interface {
	SaveGroup(ctx context.Context, group *bcms.Group) error
	SaveTemplate(ctx context.Context, template *bcms.Template) error
	SaveEntry(ctx context.Context, entry *bcms.Entry) error
	SaveMedia(ctx context.Context, media *bcms.Media) error
	SaveLanguage(ctx context.Context, language *bcms.Language) error
}

// Seed content ids.
const (
	SeedTemplateBlog   = "t-blog"
	SeedTemplateAuthor = "t-author"
	SeedGroupSEO       = "g-seo"
	SeedEntryPost      = "e-post"
	SeedEntryAuthor    = "e-author"
	SeedMediaCover     = "m-cover"
)

func seedTitleSlug() []bcms.Prop {
	return []bcms.Prop{
		{ID: "p-title", Name: "title", Label: "Title", Required: true, Type: bcms.PropTypeString, DefaultData: bcms.PropStringData{}},
		{ID: "p-slug", Name: "slug", Label: "Slug", Required: true, Type: bcms.PropTypeString, DefaultData: bcms.PropStringData{}},
	}
}

// SeedContent writes a blog template with an SEO group, an author pointer
// and a cover image, plus one post and one author entry in English.
func SeedContent(ctx context.Context, w ContentWriter) error {
	seo := &bcms.Group{
		ID: SeedGroupSEO, Name: "seo", Label: "SEO",
		Props: []bcms.Prop{
			{ID: "p-seo-title", Name: "meta_title", Label: "Meta title", Required: true, Type: bcms.PropTypeString, DefaultData: bcms.PropStringData{}},
		},
	}
	author := &bcms.Template{ID: SeedTemplateAuthor, Name: "author", Label: "Author", Props: seedTitleSlug()}
	blog := &bcms.Template{
		ID: SeedTemplateBlog, Name: "blog", Label: "Blog",
		Props: append(seedTitleSlug(),
			bcms.Prop{ID: "p-cover", Name: "cover", Label: "Cover", Required: true, Type: bcms.PropTypeMedia, DefaultData: bcms.PropMediaData{}},
			bcms.Prop{ID: "p-seo", Name: "seo", Label: "SEO", Required: true, Type: bcms.PropTypeGroupPointer,
				DefaultData: bcms.PropGroupPointerData{GroupID: SeedGroupSEO, Items: []bcms.PropGroupPointerItem{}}},
			bcms.Prop{ID: "p-author", Name: "author", Label: "Author", Required: true, Type: bcms.PropTypeEntryPointer,
				DefaultData: bcms.PropEntryPointerData{TemplateID: SeedTemplateAuthor, EntryIDs: []string{}, DisplayProp: "title"}},
		),
	}

	authorEntry := &bcms.Entry{ID: SeedEntryAuthor, TemplateID: SeedTemplateAuthor, Meta: []bcms.EntryMeta{{
		Lng: "en",
		Props: []bcms.PropValue{
			{ID: "p-title", Data: []any{"Jane"}},
			{ID: "p-slug", Data: []any{"jane"}},
		},
	}}}
	post := &bcms.Entry{ID: SeedEntryPost, TemplateID: SeedTemplateBlog, Meta: []bcms.EntryMeta{{
		Lng: "en",
		Props: []bcms.PropValue{
			{ID: "p-title", Data: []any{"Hello"}},
			{ID: "p-slug", Data: []any{"hello"}},
			{ID: "p-cover", Data: []any{map[string]any{"id": SeedMediaCover}}},
			{ID: "p-seo", Data: map[string]any{
				"groupId": SeedGroupSEO,
				"items": []any{map[string]any{"values": []any{
					map[string]any{"id": "p-seo-title", "data": []any{"Hello | Blog"}},
				}}},
			}},
			{ID: "p-author", Data: []any{SeedEntryAuthor}},
		},
	}}}

	steps := []func() error{
		func() error { return w.SaveLanguage(ctx, &bcms.Language{ID: "l-en", Code: "en", Name: "English", NativeName: "English", Default: true}) },
		func() error {
			return w.SaveMedia(ctx, &bcms.Media{ID: SeedMediaCover, Name: "cover.png", MimeType: "image/png", Path: "blog", AltText: "Cover", Width: 1200, Height: 630})
		},
		func() error { return w.SaveGroup(ctx, seo) },
		func() error { return w.SaveTemplate(ctx, author) },
		func() error { return w.SaveTemplate(ctx, blog) },
		func() error { return w.SaveEntry(ctx, authorEntry) },
		func() error { return w.SaveEntry(ctx, post) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return fmt.Errorf("seed content: %w", err)
		}
	}
	return nil
}

// UploadObject creates bucket when missing and uploads body under key.
func UploadObject(ctx context.Context, endpoint, accessKey, secretKey, bucket, key string, body []byte) error {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	}
	if endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(endpoint))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	if _, err := s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		if _, cerr := s3Client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); cerr != nil {
			var apiErr smithy.APIError
			if !errors.As(cerr, &apiErr) {
				return fmt.Errorf("create bucket: %w", cerr)
			}
			if code := apiErr.ErrorCode(); code != "BucketAlreadyOwnedByYou" && code != "BucketAlreadyExists" {
				return fmt.Errorf("create bucket: %w", cerr)
			}
		}
	}

	uploader := manager.NewUploader(s3Client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}
	return nil
}
