package mail

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io/fs"
	netmail "net/mail"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/notify"
)

// Message is a composed email.
type Message struct {
	From    string
	To      []string
	CC      []string
	BCC     []string
	ReplyTo string
	Subject string
	Body    string
	HTML    bool
}

// Recipients returns every envelope recipient.
func (m Message) Recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.CC)+len(m.BCC))
	out = append(out, m.To...)
	out = append(out, m.CC...)
	out = append(out, m.BCC...)
	return out
}

// Option configures a Composer.
type Option func(*composerConfig)

type composerConfig struct {
	baseDir   string
	templates fs.FS
	extension string
	from      string
	policy    *bluemonday.Policy
}

// WithBaseDir loads body templates from a directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *composerConfig) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads body templates from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *composerConfig) {
		cfg.templates = files
	}
}

// WithExtension overrides the body template extension (default ".html").
func WithExtension(ext string) Option {
	return func(cfg *composerConfig) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithDefaultFrom sets the sender used when an email config has none.
func WithDefaultFrom(from string) Option {
	return func(cfg *composerConfig) {
		cfg.from = strings.TrimSpace(from)
	}
}

// WithPolicy replaces the sanitiser applied to submitted values.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *composerConfig) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

// Composer renders messages from email configs.
type Composer struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
	ext       string
	from      string
	policy    *bluemonday.Policy
	files     bool
}

// NewComposer builds a Composer. Without a base dir or fs.FS only the
// built-in plain text body is available.
func NewComposer(options ...Option) (*Composer, error) {
	cfg := &composerConfig{
		extension: ".html",
		policy:    bluemonday.StrictPolicy(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("mail: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}
	files := len(loaders) > 0
	if !files {
		loaders = append(loaders, pongo2.NewFSLoader(emptyFS{}))
	}

	return &Composer{
		set:       pongo2.NewSet("formsubmit-mail", loaders...),
		templates: make(map[string]*pongo2.Template),
		ext:       cfg.extension,
		from:      cfg.from,
		policy:    cfg.policy,
		files:     files,
	}, nil
}

// Applies reports whether the email config fires for the job's site.
func Applies(cfg model.EmailConfig, job notify.Job) bool {
	bound := strings.TrimSpace(cfg.Site)
	return bound == "" || bound == job.Site.Handle
}

// Compose renders one message.
func (c *Composer) Compose(cfg model.EmailConfig, job notify.Job) (Message, error) {
	ctx := c.context(job)

	to, err := c.addresses(cfg.To, ctx)
	if err != nil {
		return Message{}, fmt.Errorf("mail: to: %w", err)
	}
	if len(to) == 0 {
		return Message{}, errors.New("mail: no recipients")
	}
	cc, err := c.addresses(cfg.CC, ctx)
	if err != nil {
		return Message{}, fmt.Errorf("mail: cc: %w", err)
	}
	bcc, err := c.addresses(cfg.BCC, ctx)
	if err != nil {
		return Message{}, fmt.Errorf("mail: bcc: %w", err)
	}

	from := cfg.From
	if strings.TrimSpace(from) == "" {
		from = c.from
	}
	fromList, err := c.addresses(from, ctx)
	if err != nil {
		return Message{}, fmt.Errorf("mail: from: %w", err)
	}
	if len(fromList) != 1 {
		return Message{}, errors.New("mail: exactly one sender is required")
	}
	replyTo, err := c.addresses(cfg.ReplyTo, ctx)
	if err != nil {
		return Message{}, fmt.Errorf("mail: reply_to: %w", err)
	}

	subject := cfg.Subject
	if strings.TrimSpace(subject) == "" {
		subject = "Form Submission"
	}
	subject, err = c.renderString(subject, ctx)
	if err != nil {
		return Message{}, fmt.Errorf("mail: subject: %w", err)
	}

	msg := Message{
		From:    fromList[0],
		To:      to,
		CC:      cc,
		BCC:     bcc,
		Subject: strings.TrimSpace(subject),
	}
	if len(replyTo) > 0 {
		msg.ReplyTo = replyTo[0]
	}

	if name := strings.TrimSpace(cfg.Template); name != "" {
		body, err := c.renderTemplate(name, ctx)
		if err != nil {
			return Message{}, err
		}
		msg.Body = body
		msg.HTML = true
		return msg, nil
	}
	body, err := c.renderString(defaultBody, ctx)
	if err != nil {
		return Message{}, fmt.Errorf("mail: body: %w", err)
	}
	msg.Body = body
	return msg, nil
}

const defaultBody = `New submission to "{{ form.title }}" on {{ site.name }}.
{% for field in fields %}
{{ field.label }}: {{ field.display }}{% endfor %}
`

func (c *Composer) context(job notify.Job) pongo2.Context {
	values := make(map[string]any, len(job.Submission.Data))
	for key, value := range job.Submission.Data {
		values[key] = c.sanitize(value)
	}

	var fields []map[string]any
	for _, field := range job.Form.Fields {
		value, ok := values[field.Handle]
		if !ok {
			continue
		}
		fields = append(fields, map[string]any{
			"handle":  field.Handle,
			"label":   field.Label(),
			"value":   value,
			"display": display(value),
		})
	}

	title := job.Form.Title
	if strings.TrimSpace(title) == "" {
		title = job.Form.Handle
	}

	ctx := pongo2.Context{
		"form": map[string]any{
			"handle": job.Form.Handle,
			"title":  title,
		},
		"site": map[string]any{
			"handle": job.Site.Handle,
			"name":   job.Site.Name,
			"url":    job.Site.URL,
			"locale": job.Site.Locale.String(),
			"lang":   job.Site.Lang(),
		},
		"submission": map[string]any{
			"id":   job.Submission.ID,
			"date": job.Submission.CreatedAt,
		},
		"fields": fields,
	}
	for key, value := range values {
		if _, reserved := ctx[key]; reserved {
			continue
		}
		ctx[key] = value
	}
	return ctx
}

func (c *Composer) sanitize(value any) any {
	switch v := value.(type) {
	case string:
		// Strip markup, keep the text; escaping happens at render time.
		return html.UnescapeString(c.policy.Sanitize(v))
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = c.sanitize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = c.sanitize(item)
		}
		return out
	default:
		return v
	}
}

func display(value any) string {
	switch v := value.(type) {
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, display(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, key+": "+display(v[key]))
		}
		return strings.Join(parts, ", ")
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// addresses renders a comma separated address template and parses the result.
func (c *Composer) addresses(raw string, ctx pongo2.Context) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	rendered, err := c.renderString(raw, ctx)
	if err != nil {
		return nil, err
	}
	rendered = strings.TrimSpace(rendered)
	if rendered == "" {
		return nil, nil
	}
	list, err := netmail.ParseAddressList(rendered)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", rendered, err)
	}
	out := make([]string, 0, len(list))
	for _, addr := range list {
		out = append(out, addr.String())
	}
	return out, nil
}

func (c *Composer) renderString(content string, ctx pongo2.Context) (string, error) {
	if !strings.Contains(content, "{{") && !strings.Contains(content, "{%") {
		return content, nil
	}
	// Values are already plain text; body templates loaded from files keep
	// pongo2's autoescaping.
	tmpl, err := c.set.FromString("{% autoescape off %}" + content + "{% endautoescape %}")
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(ctx, &buf); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

func (c *Composer) renderTemplate(name string, ctx pongo2.Context) (string, error) {
	if !c.files {
		return "", fmt.Errorf("mail: template %q requested but no template source configured", name)
	}
	path := name
	if !strings.HasSuffix(path, c.ext) {
		path += c.ext
	}
	tmpl, err := c.template(path)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(ctx, &buf); err != nil {
		return "", fmt.Errorf("mail: execute template %q: %w", path, err)
	}
	return buf.String(), nil
}

func (c *Composer) template(path string) (*pongo2.Template, error) {
	c.mu.RLock()
	if tmpl, ok := c.templates[path]; ok {
		c.mu.RUnlock()
		return tmpl, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if tmpl, ok := c.templates[path]; ok {
		return tmpl, nil
	}
	tmpl, err := c.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("mail: load template %q: %w", path, err)
	}
	c.templates[path] = tmpl
	return tmpl, nil
}

type emptyFS struct{}

func (emptyFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}
