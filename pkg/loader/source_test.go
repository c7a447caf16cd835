package loader

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/harborlight/siteshell/pkg/routes"
)

func render(t *testing.T, c Content, loc routes.Location) string {
	t.Helper()
	var sb strings.Builder
	if err := c.Render(&sb, loc); err != nil {
		t.Fatalf("Render() = %v", err)
	}
	return sb.String()
}

func TestValidateID(t *testing.T) {
	valid := []string{"home", "not-found", "legal/privacy", "v1.2_x"}
	for _, id := range valid {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q) = %v, want nil", id, err)
		}
	}
	invalid := []string{"", "..", "../etc/passwd", "/abs", "a//b", "a b", `a\b`, "legal/"}
	for _, id := range invalid {
		if err := ValidateID(id); !errors.Is(err, ErrInvalidModuleID) {
			t.Errorf("ValidateID(%q) = %v, want ErrInvalidModuleID", id, err)
		}
	}
}

func TestDirSource(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "legal"), 0o755); err != nil {
		t.Fatal(err)
	}
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(root, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("give.html", `<h1 id="tiers">Give</h1><p>{{.Path}}#{{.Fragment}}</p>`)
	write("legal/privacy.html", `<h1>{{.Module}}</h1>`)
	write("broken.html", `{{if}}`)
	write("big.html", strings.Repeat("x", 200))

	src := &DirSource{Root: root, MaxBytes: 100}
	ctx := context.Background()

	c, err := src.Fetch(ctx, "give")
	if err != nil {
		t.Fatalf("Fetch(give) = %v", err)
	}
	if got := render(t, c, routes.Location{Path: "/give", Fragment: "tiers"}); got != `<h1 id="tiers">Give</h1><p>/give#tiers</p>` {
		t.Errorf("render = %q", got)
	}

	c, err = src.Fetch(ctx, "legal/privacy")
	if err != nil {
		t.Fatalf("Fetch(legal/privacy) = %v", err)
	}
	if got := render(t, c, routes.Location{Path: "/privacy"}); got != "<h1>legal/privacy</h1>" {
		t.Errorf("render = %q", got)
	}

	if _, err := src.Fetch(ctx, "ghost"); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("Fetch(ghost) = %v, want ErrModuleNotFound", err)
	}
	if _, err := src.Fetch(ctx, "../secret"); !errors.Is(err, ErrInvalidModuleID) {
		t.Errorf("Fetch(../secret) = %v, want ErrInvalidModuleID", err)
	}
	if _, err := src.Fetch(ctx, "broken"); err == nil {
		t.Error("Fetch(broken) should fail to parse")
	}
	if _, err := src.Fetch(ctx, "big"); !errors.Is(err, ErrModuleTooLarge) {
		t.Errorf("Fetch(big) = %v, want ErrModuleTooLarge", err)
	}
}

func TestTemplateMissingKeyFailsAtRender(t *testing.T) {
	c, err := ParseTemplate("x", []byte(`{{.Nope}}`))
	if err != nil {
		t.Fatalf("ParseTemplate() = %v", err)
	}
	if err := c.Render(io.Discard, routes.Location{Path: "/"}); err == nil {
		t.Error("Render() should fail on an unknown field")
	}
}

type fakeS3 struct {
	objects map[string]string
	err     error
	keys    []string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.keys = append(f.keys, *in.Bucket+"/"+*in.Key)
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3Source(t *testing.T) {
	client := &fakeS3{objects: map[string]string{
		"modules/home.html": `<h1>Home {{.Path}}</h1>`,
	}}
	src := &S3Source{Client: client, Bucket: "site", Prefix: "modules/"}
	ctx := context.Background()

	c, err := src.Fetch(ctx, "home")
	if err != nil {
		t.Fatalf("Fetch(home) = %v", err)
	}
	if got := render(t, c, routes.Location{Path: "/"}); got != "<h1>Home /</h1>" {
		t.Errorf("render = %q", got)
	}
	if client.keys[0] != "site/modules/home.html" {
		t.Errorf("requested %q", client.keys[0])
	}

	if _, err := src.Fetch(ctx, "ghost"); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("Fetch(ghost) = %v, want ErrModuleNotFound", err)
	}

	client.err = errors.New("throttled")
	if _, err := src.Fetch(ctx, "home"); err == nil || errors.Is(err, ErrModuleNotFound) {
		t.Errorf("Fetch() with transport error = %v", err)
	}
}

func TestChain(t *testing.T) {
	builtin := Builtin{
		"not-found": ContentFunc(func(w io.Writer, _ routes.Location) error {
			_, err := io.WriteString(w, "builtin")
			return err
		}),
	}
	remote := SourceFunc(func(_ context.Context, id string) (Content, error) {
		switch id {
		case "home":
			return ParseTemplate(id, []byte("remote"))
		case "broken":
			return nil, errors.New("500")
		}
		return nil, ErrModuleNotFound
	})
	chain := Chain{builtin, remote}
	ctx := context.Background()

	c, err := chain.Fetch(ctx, "not-found")
	if err != nil || render(t, c, routes.Location{}) != "builtin" {
		t.Errorf("Fetch(not-found) = %v", err)
	}
	c, err = chain.Fetch(ctx, "home")
	if err != nil || render(t, c, routes.Location{}) != "remote" {
		t.Errorf("Fetch(home) = %v", err)
	}
	if _, err := chain.Fetch(ctx, "broken"); err == nil || errors.Is(err, ErrModuleNotFound) {
		t.Errorf("Fetch(broken) = %v, want the source error", err)
	}
	if _, err := chain.Fetch(ctx, "ghost"); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("Fetch(ghost) = %v, want ErrModuleNotFound", err)
	}
}
