package handler

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/hitoshi/blogman/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates はWebサービスのHTMLテンプレート一式を保持する。
// 起動時に1回パースし、以降は読み取り専用で共有する。
type Templates struct {
	t *template.Template
}

// NewTemplates は埋め込みテンプレートをパースしてTemplatesを生成する。
// 記事本文は保存時にサニタイズ済みのHTMLなので、safeHTML関数で
// エスケープせずに出力する。
func NewTemplates() (*Templates, error) {
	funcs := template.FuncMap{
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
	}

	t, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Templates{t: t}, nil
}

// Render は指定テンプレートをレンダリングする。
func (tpl *Templates) Render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tpl.t.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
	}
}

// RenderError は汎用エラーページを500で返す。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを提示する。
func (tpl *Templates) RenderError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	if err := tpl.t.ExecuteTemplate(w, "error.html", nil); err != nil {
		slog.Error("failed to render error template", slog.String("error", err.Error()))
	}
}

// indexPageData はトップページのテンプレートデータ。
type indexPageData struct {
	User  *model.User
	Posts []model.Post
}

// modifyPageData は記事作成・編集ページのテンプレートデータ。
type modifyPageData struct {
	Heading string
	Submit  string
	Action  string
	Post    *model.Post
}

// authPageData はログイン・登録ページのテンプレートデータ。
type authPageData struct {
	ErrorMessage string
}
