package httpapi

import (
	"mime"
	"net/http"

	"github.com/dmitrijs2005/neuroresume/internal/server/models"
	"github.com/dmitrijs2005/neuroresume/internal/server/pagination"
	"github.com/dmitrijs2005/neuroresume/internal/server/renderer"
	"github.com/dmitrijs2005/neuroresume/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (h *handler) listSessions(c *gin.Context) {
	var q listSessionsQuery
	if err := bindQuery(c, &q); err != nil {
		writeError(c, h.logger, err)
		return
	}

	page, err := h.svc.Sessions.ListSessions(c.Request.Context(), currentUserID(c),
		services.ListFilter{Status: models.SessionStatus(q.Status)},
		pagination.Request{Page: q.Page, PageSize: q.PageSize})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toSessionPage(page))
}

func (h *handler) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := bindJSON(c, &req, true); err != nil {
		writeError(c, h.logger, err)
		return
	}

	s, err := h.svc.Sessions.CreateSession(c.Request.Context(), currentUserID(c), services.SessionConfig{
		Language: models.Language(req.Language),
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionResponse(s))
}

func (h *handler) getSession(c *gin.Context) {
	s, err := h.svc.Sessions.GetSession(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(s))
}

func (h *handler) deleteSession(c *gin.Context) {
	if err := h.svc.Sessions.DeleteSession(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) listMessages(c *gin.Context) {
	id := c.Param("id")
	ms, err := h.svc.Messages.ListMessages(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toMessageList(id, ms))
}

func (h *handler) appendMessage(c *gin.Context) {
	var req appendMessageRequest
	if err := bindJSON(c, &req, false); err != nil {
		writeError(c, h.logger, err)
		return
	}

	res, err := h.svc.Messages.AppendUserMessage(c.Request.Context(), currentUserID(c), c.Param("id"), req.Content)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, appendMessageResponse{
		UserMessage:      toMessageResponse(res.UserMessage),
		AssistantMessage: toMessageResponse(res.AssistantMessage),
		Progress:         res.Session.Progress,
		MessageCount:     res.Session.MessageCount,
	})
}

func (h *handler) complete(c *gin.Context) {
	res, err := h.svc.Completion.Complete(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toArtifactResponse(res))
}

func (h *handler) regenerateResume(c *gin.Context) {
	var req regenerateRequest
	if err := bindJSON(c, &req, true); err != nil {
		writeError(c, h.logger, err)
		return
	}

	res, err := h.svc.Completion.Regenerate(c.Request.Context(), currentUserID(c), c.Param("id"), services.RenderOptions{
		Format:   req.Format,
		Template: req.Template,
		Language: models.Language(req.Language),
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toArtifactResponse(res))
}

func (h *handler) downloadResume(c *gin.Context) {
	doc, err := h.svc.Completion.Download(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeDocument(c, doc)
}

func writeDocument(c *gin.Context, doc *renderer.Document) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	c.Data(http.StatusOK, doc.MIME, doc.Content)
}

func (h *handler) resumeURL(c *gin.Context) {
	url, expiresAt, err := h.svc.Completion.DownloadURL(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, downloadURLResponse{URL: url, ExpiresAt: expiresAt})
}
