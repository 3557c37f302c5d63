// Package documents 面向用户记录的文档服务：生成、改写、上传、编辑、渲染、下载以及版本历史
package documents

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/doc-forge/internal/collab"
	"github.com/nerdneilsfield/doc-forge/internal/preview"
	"github.com/nerdneilsfield/doc-forge/internal/store"
	"github.com/nerdneilsfield/doc-forge/pkg/extract"
	"github.com/nerdneilsfield/doc-forge/pkg/pipeline"
	"github.com/nerdneilsfield/doc-forge/pkg/render"
)

var (
	// ErrForbidden 记录不属于调用者
	ErrForbidden = errors.New("document belongs to another user")
	// ErrNoFile 记录没有关联文件
	ErrNoFile = errors.New("document has no file")
	// ErrTooLarge 上传文件超过大小限制
	ErrTooLarge = errors.New("file too large")
)

// ListVersionLimit 列表中每条记录附带的版本数
const ListVersionLimit = 5

// 记录类型
const (
	TypeWord = "word"
	TypePDF  = "pdf"
	TypePPT  = "ppt"
	TypeText = "text"
)

// ConvertNone 上传时不转换，保存原始文件
const ConvertNone = "none"

// Files 文件存储协作者
type Files interface {
	pipeline.Storage
	Read(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

// Service 文档服务
type Service struct {
	pipeline  *pipeline.Pipeline
	store     *store.Store
	files     Files
	hub       *collab.Hub
	preview   *preview.Renderer
	maxUpload int64
	now       func() time.Time
	logger    *zap.Logger
}

// Option 服务选项
type Option func(*Service)

// WithMaxUploadSize 设置上传大小限制
func WithMaxUploadSize(n int64) Option {
	return func(s *Service) { s.maxUpload = n }
}

// WithClock 设置时钟
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService 创建文档服务，hub 为 nil 时不广播编辑事件
func NewService(p *pipeline.Pipeline, st *store.Store, files Files, hub *collab.Hub, opts ...Option) *Service {
	s := &Service{
		pipeline:  p,
		store:     st,
		files:     files,
		hub:       hub,
		preview:   preview.NewRenderer(),
		maxUpload: 10 << 20,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pipeline 返回底层流水线
func (s *Service) Pipeline() *pipeline.Pipeline {
	return s.pipeline
}

// GenerateInput 生成参数
type GenerateInput struct {
	Type    string `json:"type"`
	Prompt  string `json:"prompt"`
	Title   string `json:"title"`
	Context string `json:"context,omitempty"`
}

// Generate 生成文档并创建记录
func (s *Service) Generate(ctx context.Context, owner string, in GenerateInput) (*store.Document, error) {
	format, err := parseDocumentType(in.Type)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, pipeline.NewError(pipeline.ErrCodeInvalidInput, "title is required", nil)
	}

	result, err := s.pipeline.Generate(ctx, &pipeline.GenerateRequest{
		Format:  format,
		Prompt:  in.Prompt,
		Title:   in.Title,
		Context: in.Context,
	})
	if err != nil {
		return nil, err
	}

	var contextValue interface{}
	if in.Context != "" {
		contextValue = in.Context
	}
	doc := &store.Document{
		OwnerID:  owner,
		Title:    in.Title,
		Type:     string(format),
		Content:  result.Text,
		FilePath: result.FilePath,
		Status:   store.StatusCompleted,
		Metadata: map[string]interface{}{
			"generatedBy": "ai",
			"prompt":      in.Prompt,
			"context":     contextValue,
		},
	}
	if err := s.store.Create(ctx, doc); err != nil {
		s.discard(result.FilePath)
		return nil, err
	}

	s.logger.Info("document created",
		zap.String("id", doc.ID),
		zap.String("owner", owner),
		zap.String("type", doc.Type))
	return doc, nil
}

// Rewrite 改写已有记录，结果保存为新记录，原记录保存快照并升级版本
func (s *Service) Rewrite(ctx context.Context, owner, id, instructions string) (*store.Document, error) {
	original, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	rewritten, err := s.pipeline.Rewrite(ctx, original.Content, instructions)
	if err != nil {
		return nil, err
	}

	metadata := make(map[string]interface{}, len(original.Metadata)+3)
	for k, v := range original.Metadata {
		metadata[k] = v
	}
	metadata["rewritten"] = true
	metadata["originalDocumentId"] = original.ID
	metadata["instructions"] = instructions

	doc := &store.Document{
		OwnerID:  original.OwnerID,
		Title:    original.Title + " (Rewritten)",
		Type:     original.Type,
		Content:  rewritten,
		FilePath: original.FilePath,
		Status:   store.StatusCompleted,
		Metadata: metadata,
	}
	if err := s.store.Create(ctx, doc); err != nil {
		return nil, err
	}
	if _, err := s.store.ApplyEdit(ctx, original.ID, store.Edit{}); err != nil {
		return nil, err
	}
	return doc, nil
}

// UploadInput 上传参数
type UploadInput struct {
	FileName string
	MimeType string
	Data     []byte
	Title    string
	// Convert 目标格式（word|pdf|ppt），none 表示保留原始文件，空值按文件类型选择
	Convert string
}

// Upload 提取上传文件的文本并创建记录
func (s *Service) Upload(ctx context.Context, owner string, in UploadInput) (*store.Document, error) {
	if s.maxUpload > 0 && int64(len(in.Data)) > s.maxUpload {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(in.Data), s.maxUpload)
	}

	mimeType := DetectMimeType(in.FileName, in.MimeType)
	kind := extract.ResolveKind(mimeType)
	convert, err := uploadTarget(kind, in.Convert)
	if err != nil {
		return nil, err
	}

	title := in.Title
	if strings.TrimSpace(title) == "" {
		title = in.FileName
	}

	result, err := s.pipeline.Ingest(ctx, &pipeline.IngestRequest{
		Data:      in.Data,
		MimeType:  mimeType,
		Title:     title,
		ConvertTo: convert,
	})
	if err != nil {
		return nil, err
	}

	var filePath string
	if result.File != nil {
		filePath = result.File.FilePath
	} else {
		ext := strings.TrimPrefix(path.Ext(in.FileName), ".")
		if ext == "" {
			ext = "bin"
		}
		filePath, err = s.files.Write(ctx, pipeline.FileName(s.now(), title, ext), in.Data)
		if err != nil {
			return nil, pipeline.NewError(pipeline.ErrCodeStorage, "failed to store upload", err)
		}
	}

	doc := &store.Document{
		OwnerID:  owner,
		Title:    title,
		Type:     recordType(kind),
		Content:  result.Text,
		FilePath: filePath,
		Status:   store.StatusCompleted,
		Metadata: map[string]interface{}{
			"uploaded":     true,
			"originalFile": in.FileName,
		},
	}
	if err := s.store.Create(ctx, doc); err != nil {
		s.discard(filePath)
		return nil, err
	}
	return doc, nil
}

// Edit 保存新内容：快照旧内容、版本加一，并广播 document-updated
func (s *Service) Edit(ctx context.Context, owner, id, content string) (*store.Document, error) {
	if _, err := s.owned(ctx, owner, id); err != nil {
		return nil, err
	}

	doc, err := s.store.ApplyEdit(ctx, id, store.Edit{Content: &content})
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		if err := s.hub.Publish(ctx, collab.Event{
			Type:       collab.EventDocumentUpdated,
			DocumentID: id,
			UserID:     owner,
			Content:    content,
			Version:    doc.Version,
		}); err != nil {
			s.logger.Warn("failed to publish edit", zap.String("id", id), zap.Error(err))
		}
	}
	return doc, nil
}

// Render 把当前内容重新渲染为指定格式并关联到记录
func (s *Service) Render(ctx context.Context, owner, id, formatName string) (*store.Document, error) {
	doc, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	format, err := parseDocumentType(formatName)
	if err != nil {
		return nil, err
	}

	file, err := s.pipeline.RenderText(ctx, doc.Content, format, doc.Title)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.ApplyEdit(ctx, id, store.Edit{FilePath: &file.FilePath})
	if err != nil {
		s.discard(file.FilePath)
		return nil, err
	}
	return updated, nil
}

// List 列出调用者的记录
func (s *Service) List(ctx context.Context, owner string) ([]*store.Document, error) {
	return s.store.ListByOwner(ctx, owner, ListVersionLimit)
}

// Get 获取记录及全部版本
func (s *Service) Get(ctx context.Context, owner, id string) (*store.Document, error) {
	return s.owned(ctx, owner, id)
}

// Delete 删除记录；记录及其历史版本的文件不再被任何记录或版本引用时一并删除（尽力而为）
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	doc, err := s.owned(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	seen := make(map[string]bool)
	paths := []string{doc.FilePath}
	for _, v := range doc.Versions {
		paths = append(paths, v.FilePath)
	}
	for _, path := range paths {
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		n, err := s.store.CountByFilePath(ctx, path)
		if err == nil && n == 0 {
			s.discard(path)
		}
	}
	return nil
}

// Download 可下载的文件
type Download struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Download 读取记录关联的文件
func (s *Service) Download(ctx context.Context, owner, id string) (*Download, error) {
	doc, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if doc.FilePath == "" {
		return nil, ErrNoFile
	}

	data, err := s.files.Read(ctx, doc.FilePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", doc.FilePath, err)
	}

	ext := strings.TrimPrefix(path.Ext(doc.FilePath), ".")
	return &Download{
		FileName:    doc.Title + "." + ext,
		ContentType: render.ContentTypeForExtension(ext),
		Data:        data,
	}, nil
}

// Preview 渲染记录内容的 HTML 预览
func (s *Service) Preview(ctx context.Context, owner, id string) (*preview.Preview, error) {
	doc, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return s.preview.Render(doc.Content)
}

// Session 协作会话状态
type Session struct {
	DocumentID  string `json:"documentId"`
	Version     int    `json:"version"`
	Subscribers int    `json:"subscribers"`
}

// Session 返回文档的协作会话
func (s *Service) Session(ctx context.Context, owner, id string) (*Session, error) {
	doc, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	session := &Session{DocumentID: doc.ID, Version: doc.Version}
	if s.hub != nil {
		session.Subscribers = s.hub.Subscribers(doc.ID)
	}
	return session, nil
}

// Subscribe 订阅文档的协作事件，调用方负责 Cancel
func (s *Service) Subscribe(ctx context.Context, owner, id string) (*collab.Subscription, error) {
	doc, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if s.hub == nil {
		return nil, collab.ErrClosed
	}
	return s.hub.Subscribe(doc.ID, owner)
}

// owned 获取记录并校验归属
func (s *Service) owned(ctx context.Context, owner, id string) (*store.Document, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != owner {
		return nil, ErrForbidden
	}
	return doc, nil
}

// discard 尽力删除已写入但未被记录引用的文件
func (s *Service) discard(filePath string) {
	if filePath == "" {
		return
	}
	if err := s.files.Delete(context.Background(), filePath); err != nil {
		s.logger.Warn("failed to delete file", zap.String("path", filePath), zap.Error(err))
	}
}

// parseDocumentType 解析记录类型为输出格式
func parseDocumentType(name string) (render.Format, error) {
	format, err := render.ParseFormat(name)
	if err != nil {
		return "", pipeline.NewError(pipeline.ErrCodeInvalidInput, "unsupported document type", err)
	}
	return format, nil
}

// uploadTarget 决定上传后的转换格式：Word 规范化为 docx，PDF 重排为 pdf，文本保留原文件
func uploadTarget(kind extract.Kind, convert string) (render.Format, error) {
	switch strings.ToLower(strings.TrimSpace(convert)) {
	case ConvertNone:
		return "", nil
	case "":
		switch kind {
		case extract.KindWord:
			return render.FormatWord, nil
		case extract.KindPDF:
			return render.FormatPDF, nil
		default:
			return "", nil
		}
	default:
		return parseDocumentType(convert)
	}
}

func recordType(kind extract.Kind) string {
	switch kind {
	case extract.KindWord:
		return TypeWord
	case extract.KindPDF:
		return TypePDF
	default:
		return TypeText
	}
}

// DetectMimeType 声明类型缺失或为通用二进制时按扩展名推断
func DetectMimeType(fileName, declared string) string {
	if declared != "" && !strings.HasPrefix(declared, "application/octet-stream") {
		return declared
	}
	ext := strings.ToLower(path.Ext(fileName))
	switch ext {
	case ".md", ".markdown", ".txt":
		return "text/plain"
	case ".docx", ".pdf", ".pptx":
		return render.ContentTypeForExtension(ext)
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return declared
}
