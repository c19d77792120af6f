package httpapi

import (
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/dmitrijs2005/neuroresume/internal/server/auth"
	"github.com/dmitrijs2005/neuroresume/internal/server/models"
	"github.com/dmitrijs2005/neuroresume/internal/server/pagination"
	"github.com/dmitrijs2005/neuroresume/internal/server/services"
)

// --- requests ---

type registerRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=50"`
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=6,max=72"`
	FirstName string `json:"firstName" binding:"max=100"`
	LastName  string `json:"lastName" binding:"max=100"`
	Phone     string `json:"phone" binding:"max=50"`
	Location  string `json:"location" binding:"max=255"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=255"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type updateProfileRequest struct {
	Username  *string `json:"username" binding:"omitempty,min=3,max=50"`
	Email     *string `json:"email" binding:"omitempty,email,max=255"`
	FirstName *string `json:"firstName" binding:"omitempty,max=100"`
	LastName  *string `json:"lastName" binding:"omitempty,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=50"`
	Location  *string `json:"location" binding:"omitempty,max=255"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required,min=6,max=72"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=72"`
}

type createSessionRequest struct {
	Language string `json:"language" binding:"omitempty,oneof=ru en"`
}

type listSessionsQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1"`
	Status   string `form:"status" binding:"omitempty,oneof=IN_PROGRESS COMPLETED"`
}

type listResumesQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"pageSize" binding:"omitempty,min=1"`
}

type appendMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}

type regenerateRequest struct {
	Format   string `json:"format" binding:"omitempty,oneof=markdown txt"`
	Template string `json:"template" binding:"omitempty,oneof=modern classic minimal creative"`
	Language string `json:"language" binding:"omitempty,oneof=ru en"`
}

// --- responses ---

type tokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresIn   int64     `json:"expiresIn"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type authResponse struct {
	Token tokenResponse `json:"token"`
	User  userResponse  `json:"user"`
}

type refreshResponse struct {
	Token tokenResponse `json:"token"`
}

type sessionResponse struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Status       string     `json:"status"`
	Language     string     `json:"language"`
	Progress     int        `json:"progress"`
	MessageCount int        `json:"messageCount"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

type sessionPageResponse struct {
	Items      []sessionResponse `json:"items"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	Total      int               `json:"total"`
	TotalPages int               `json:"totalPages"`
	HasMore    bool              `json:"hasMore"`
}

type messageResponse struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	Seq       int             `json:"seq"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

type messageListResponse struct {
	SessionID string            `json:"sessionId"`
	Messages  []messageResponse `json:"messages"`
}

type appendMessageResponse struct {
	UserMessage      messageResponse `json:"userMessage"`
	AssistantMessage messageResponse `json:"assistantMessage"`
	Progress         int             `json:"progress"`
	MessageCount     int             `json:"messageCount"`
}

type artifactResponse struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"sessionId"`
	Format      string          `json:"format"`
	Template    string          `json:"template"`
	Language    string          `json:"language"`
	MIMEType    string          `json:"mimeType"`
	Filename    string          `json:"filename"`
	SizeBytes   int64           `json:"sizeBytes"`
	Checksum    string          `json:"checksum"`
	Version     int             `json:"version"`
	Content     string          `json:"content"`
	Session     sessionResponse `json:"session"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// resumeResponse describes a stored resume without its content.
type resumeResponse struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Format    string    `json:"format"`
	Template  string    `json:"template"`
	Language  string    `json:"language"`
	MIMEType  string    `json:"mimeType"`
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"sizeBytes"`
	Checksum  string    `json:"checksum"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type resumePageResponse struct {
	Items      []resumeResponse `json:"items"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	Total      int              `json:"total"`
	TotalPages int              `json:"totalPages"`
	HasMore    bool             `json:"hasMore"`
}

type downloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// --- converters ---

func toTokenResponse(t *auth.IssuedToken) tokenResponse {
	return tokenResponse{
		AccessToken: t.Value,
		TokenType:   common.BearerScheme,
		ExpiresIn:   int64(t.ExpiresAt.Sub(t.IssuedAt).Seconds()),
		ExpiresAt:   t.ExpiresAt.UTC(),
	}
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.UserName,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Location:  u.Location,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toSessionResponse(s *models.Session) sessionResponse {
	return sessionResponse{
		ID:           s.ID,
		UserID:       s.UserID,
		Status:       string(s.Status),
		Language:     string(s.Language),
		Progress:     s.Progress,
		MessageCount: s.MessageCount,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		CompletedAt:  s.CompletedAt,
	}
}

func toSessionPage(p pagination.Page[*models.Session]) sessionPageResponse {
	items := make([]sessionResponse, 0, len(p.Items))
	for _, s := range p.Items {
		items = append(items, toSessionResponse(s))
	}
	return sessionPageResponse{
		Items:      items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      p.Total,
		TotalPages: p.TotalPages(),
		HasMore:    p.HasMore(),
	}
}

func toMessageResponse(m *models.Message) messageResponse {
	return messageResponse{
		ID:        m.ID,
		SessionID: m.SessionID,
		Seq:       m.Seq,
		Role:      string(m.Role),
		Content:   m.Content,
		Metadata:  m.Metadata,
		CreatedAt: m.CreatedAt,
	}
}

func toMessageList(sessionID string, ms []*models.Message) messageListResponse {
	out := make([]messageResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMessageResponse(m))
	}
	return messageListResponse{SessionID: sessionID, Messages: out}
}

func toArtifactResponse(r *services.CompletionResult) artifactResponse {
	a := r.Artifact
	return artifactResponse{
		ID:          a.ID,
		SessionID:   a.SessionID,
		Format:      a.Format,
		Template:    a.Template,
		Language:    string(a.Language),
		MIMEType:    a.MIMEType,
		Filename:    a.Filename,
		SizeBytes:   a.SizeBytes,
		Checksum:    a.Checksum,
		Version:     a.Version,
		Content:     string(r.Document.Content),
		Session:     toSessionResponse(r.Session),
		GeneratedAt: a.UpdatedAt,
	}
}

func toResumeResponse(a *models.Artifact) resumeResponse {
	return resumeResponse{
		ID:        a.ID,
		SessionID: a.SessionID,
		Format:    a.Format,
		Template:  a.Template,
		Language:  string(a.Language),
		MIMEType:  a.MIMEType,
		Filename:  a.Filename,
		SizeBytes: a.SizeBytes,
		Checksum:  a.Checksum,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toResumePage(p pagination.Page[*models.Artifact]) resumePageResponse {
	items := make([]resumeResponse, 0, len(p.Items))
	for _, a := range p.Items {
		items = append(items, toResumeResponse(a))
	}
	return resumePageResponse{
		Items:      items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      p.Total,
		TotalPages: p.TotalPages(),
		HasMore:    p.HasMore(),
	}
}
