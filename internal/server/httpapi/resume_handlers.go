package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/neuroresume/internal/server/models"
	"github.com/dmitrijs2005/neuroresume/internal/server/pagination"
	"github.com/dmitrijs2005/neuroresume/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (h *handler) listResumes(c *gin.Context) {
	var q listResumesQuery
	if err := bindQuery(c, &q); err != nil {
		writeError(c, h.logger, err)
		return
	}

	page, err := h.svc.Artifacts.ListArtifacts(c.Request.Context(), currentUserID(c),
		pagination.Request{Page: q.Page, PageSize: q.PageSize})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toResumePage(page))
}

func (h *handler) getResume(c *gin.Context) {
	a, err := h.svc.Artifacts.GetArtifact(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toResumeResponse(a))
}

// updateResume re-renders the resume with the given options.
func (h *handler) updateResume(c *gin.Context) {
	var req regenerateRequest
	if err := bindJSON(c, &req, true); err != nil {
		writeError(c, h.logger, err)
		return
	}

	res, err := h.svc.Artifacts.UpdateArtifact(c.Request.Context(), currentUserID(c), c.Param("id"), services.RenderOptions{
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

func (h *handler) deleteResume(c *gin.Context) {
	if err := h.svc.Artifacts.DeleteArtifact(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) downloadResumeByID(c *gin.Context) {
	doc, err := h.svc.Artifacts.Download(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeDocument(c, doc)
}
