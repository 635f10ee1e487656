package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"
	"victorina_backend/internal/model"
	"victorina_backend/internal/repository"
	"victorina_backend/internal/util"
	"victorina_backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OptionInput struct {
	Content string       `json:"content"`
	Type    string       `json:"type"`
	Image   string       `json:"image"`
	Traits  model.Traits `json:"traits"`
}

type QuestionInput struct {
	Text         string        `json:"text"`
	Image        string        `json:"image"`
	CorrectIndex *int          `json:"correctIndex"`
	Options      []OptionInput `json:"options"`
}

type ResultInput struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Image       string       `json:"image"`
	Traits      model.Traits `json:"traits"`
}

type CreateQuizRequest struct {
	Title        string          `json:"title" binding:"required"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Difficulty   string          `json:"difficulty"`
	QuizType     model.QuizType  `json:"quizType"`
	TimeDuration int             `json:"timeDuration"`
	IsPublic     *bool           `json:"isPublic"`
	Image        string          `json:"image"`
	Tags         []string        `json:"tags"`
	Questions    []QuestionInput `json:"questions"`
	Results      []ResultInput   `json:"results"`
}

// ValidateCreateQuiz rejects definitions that could not be scored later.
func ValidateCreateQuiz(req *CreateQuizRequest) error {
	if req.QuizType == "" {
		req.QuizType = model.QuizTypeStandard
	}
	if !req.QuizType.Valid() {
		return fmt.Errorf("%w: unknown quiz type %q", util.ErrInvalidQuiz, req.QuizType)
	}
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title is required", util.ErrInvalidQuiz)
	}
	if req.TimeDuration < 0 {
		return fmt.Errorf("%w: time duration must not be negative", util.ErrInvalidQuiz)
	}
	if len(req.Questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", util.ErrInvalidQuiz)
	}
	for i, q := range req.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%w: question %d has no text", util.ErrInvalidQuiz, i+1)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", util.ErrInvalidQuiz, i+1)
		}
		if req.QuizType == model.QuizTypeStandard {
			if q.CorrectIndex == nil || *q.CorrectIndex < 0 || *q.CorrectIndex >= len(q.Options) {
				return fmt.Errorf("%w: question %d has no valid correct answer", util.ErrInvalidQuiz, i+1)
			}
		}
	}
	if req.QuizType == model.QuizTypePersonality {
		if len(req.Results) == 0 {
			return fmt.Errorf("%w: %v", util.ErrInvalidQuiz, util.ErrPersonalityResultsMissing)
		}
		for i, r := range req.Results {
			if strings.TrimSpace(r.Title) == "" {
				return fmt.Errorf("%w: result %d has no title", util.ErrInvalidQuiz, i+1)
			}
		}
	}
	return nil
}

var standardBandPercents = []int{0, 40, 60, 80, 100}

var standardBandMessages = []string{
	"Try again! You will get there!",
	"Not bad! There is room to grow.",
	"Good result! Well done!",
	"Excellent result! You are a true expert!",
}

// StandardResults builds the score bands of a standard quiz. Band edges are
// percentages of questionCount rounded half-up, so neighbours share an edge.
func StandardResults(questionCount int) []model.QuizResult {
	edge := func(percent int) int {
		return (percent*questionCount + 50) / 100
	}
	results := make([]model.QuizResult, 0, len(standardBandMessages))
	for i, msg := range standardBandMessages {
		lo, hi := edge(standardBandPercents[i]), edge(standardBandPercents[i+1])
		results = append(results, model.QuizResult{
			Position:    i,
			Title:       fmt.Sprintf("Result %d", i+1),
			Description: msg,
			MinScore:    &lo,
			MaxScore:    &hi,
			Traits:      datatypes.NewJSONType(model.Traits{}),
		})
	}
	return results
}

func traitsOrEmpty(t model.Traits) datatypes.JSONType[model.Traits] {
	if t == nil {
		t = model.Traits{}
	}
	return datatypes.NewJSONType(t)
}

// BuildQuiz turns a validated request into a model graph.
func BuildQuiz(req *CreateQuizRequest, authorID uint) *model.Quiz {
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	quiz := &model.Quiz{
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Category:      req.Category,
		Difficulty:    req.Difficulty,
		QuizType:      req.QuizType,
		TimeDuration:  req.TimeDuration,
		IsPublic:      isPublic,
		Image:         req.Image,
		Tags:          datatypes.NewJSONType(tags),
		AuthorID:      authorID,
		AverageRating: decimal.Zero,
	}

	for i, q := range req.Questions {
		question := model.Question{
			Position: i,
			Text:     q.Text,
			Image:    q.Image,
		}
		if quiz.QuizType == model.QuizTypeStandard && q.CorrectIndex != nil {
			ci := *q.CorrectIndex
			question.CorrectIndex = &ci
		}
		for j, o := range q.Options {
			optType := o.Type
			if optType == "" {
				optType = "text"
			}
			question.Options = append(question.Options, model.Option{
				Position: j,
				Type:     optType,
				Content:  o.Content,
				Image:    o.Image,
				Traits:   traitsOrEmpty(o.Traits),
			})
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	if quiz.IsPersonality() {
		for i, r := range req.Results {
			quiz.Results = append(quiz.Results, model.QuizResult{
				Position:    i,
				Title:       r.Title,
				Description: r.Description,
				Image:       r.Image,
				Traits:      traitsOrEmpty(r.Traits),
			})
		}
	} else {
		quiz.Results = StandardResults(len(quiz.Questions))
	}
	return quiz
}

type QuizSummary struct {
	ID            uint            `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Difficulty    string          `json:"difficulty"`
	QuizType      model.QuizType  `json:"quizType"`
	TimeDuration  int             `json:"timeDuration"`
	IsPublic      bool            `json:"isPublic"`
	Image         string          `json:"image"`
	AuthorID      uint            `json:"authorId"`
	AuthorName    string          `json:"authorName"`
	AverageRating decimal.Decimal `json:"averageRating"`
	RatingCount   int             `json:"ratingCount"`
	QuestionCount int             `json:"questionCount"`
	TagList       []string        `json:"tags"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func newQuizSummary(q *model.Quiz, questionCount int) QuizSummary {
	var s QuizSummary
	copier.Copy(&s, q)
	s.TagList = q.Tags.Data()
	if s.TagList == nil {
		s.TagList = []string{}
	}
	if q.Author != nil {
		s.AuthorName = q.Author.Username
	}
	s.QuestionCount = questionCount
	return s
}

type QuizService struct {
	Repo    *repository.QuizRepository
	Storage *StorageService
}

func NewQuizService(repo *repository.QuizRepository, storage *StorageService) *QuizService {
	return &QuizService{Repo: repo, Storage: storage}
}

func (s *QuizService) Create(ctx context.Context, authorID uint, req *CreateQuizRequest) (*model.Quiz, error) {
	if err := ValidateCreateQuiz(req); err != nil {
		return nil, err
	}
	quiz := BuildQuiz(req, authorID)
	if err := s.Repo.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	logger.Log.Info("Quiz created",
		zap.Uint("quiz_id", quiz.ID), zap.Uint("author_id", authorID), zap.String("type", string(quiz.QuizType)))
	return quiz, nil
}

func (s *QuizService) summaries(ctx context.Context, quizzes []model.Quiz) ([]QuizSummary, error) {
	ids := make([]uint, 0, len(quizzes))
	for _, q := range quizzes {
		ids = append(ids, q.ID)
	}
	counts, err := s.Repo.CountQuestions(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]QuizSummary, 0, len(quizzes))
	for i := range quizzes {
		out = append(out, newQuizSummary(&quizzes[i], counts[quizzes[i].ID]))
	}
	return out, nil
}

func (s *QuizService) ListPublic(ctx context.Context, f repository.QuizFilter) ([]QuizSummary, int64, error) {
	quizzes, total, err := s.Repo.List(ctx, f, true)
	if err != nil {
		return nil, 0, err
	}
	out, err := s.summaries(ctx, quizzes)
	return out, total, err
}

func (s *QuizService) ListByAuthor(ctx context.Context, authorID uint, f repository.QuizFilter) ([]QuizSummary, int64, error) {
	f.AuthorID = authorID
	quizzes, total, err := s.Repo.List(ctx, f, false)
	if err != nil {
		return nil, 0, err
	}
	out, err := s.summaries(ctx, quizzes)
	return out, total, err
}

// Get returns the full quiz. Private quizzes are visible to their author
// only, and correct answers are hidden from everyone but the author.
func (s *QuizService) Get(ctx context.Context, id, viewerID uint) (*model.Quiz, error) {
	quiz, err := s.Repo.FindByIDWithDetails(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	if quiz.AuthorID != viewerID {
		if !quiz.IsPublic {
			return nil, util.ErrQuizNotFound
		}
		for i := range quiz.Questions {
			quiz.Questions[i].CorrectIndex = nil
		}
	}
	return quiz, nil
}

func (s *QuizService) Delete(ctx context.Context, id uint, user *util.Claims) error {
	quiz, err := s.Repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrQuizNotFound
	}
	if err != nil {
		return err
	}
	if quiz.AuthorID != user.UserID && user.Role != model.RoleAdmin {
		return util.ErrPermissionDenied
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Log.Info("Quiz deleted", zap.Uint("quiz_id", id), zap.Uint("user_id", user.UserID))
	return nil
}

// UploadImage stores a quiz, question, option or result picture and returns its URL.
func (s *QuizService) UploadImage(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if file.Size > util.MaxImageSize {
		return "", fmt.Errorf("%w: image is larger than %d bytes", util.ErrInvalidQuiz, util.MaxImageSize)
	}
	if !util.HasImageExtension(file.Filename) {
		return "", fmt.Errorf("%w: unsupported image extension", util.ErrInvalidQuiz)
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	mimeType, err := util.ValidateMimeType(src, []string{util.MimeImage})
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrInvalidQuiz, err)
	}
	if _, err := src.Seek(0, 0); err != nil {
		return "", err
	}

	name := fmt.Sprintf("quizzes/%s/%s%s",
		time.Now().Format("2006/01"), uuid.NewString(), strings.ToLower(filepath.Ext(file.Filename)))
	return s.Storage.Upload(ctx, name, src, file.Size, mimeType)
}
