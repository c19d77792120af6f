package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/neuroresume/internal/logging"
	"github.com/dmitrijs2005/neuroresume/internal/server/models"
	"github.com/dmitrijs2005/neuroresume/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (h *handler) register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req, false); err != nil {
		writeError(c, h.logger, err)
		return
	}

	ctx := c.Request.Context()
	res, err := h.svc.Users.Register(ctx, services.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Location:  req.Location,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	logging.FromContext(ctx, h.logger).Info(ctx, "Registered", "user_id", res.User.ID)
	c.JSON(http.StatusCreated, authResponse{Token: toTokenResponse(res.Token), User: toUserResponse(res.User)})
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req, false); err != nil {
		writeError(c, h.logger, err)
		return
	}

	res, err := h.svc.Users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{Token: toTokenResponse(res.Token), User: toUserResponse(res.User)})
}

func (h *handler) refresh(c *gin.Context) {
	token, err := h.svc.Users.Refresh(c.Request.Context(), currentToken(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, refreshResponse{Token: toTokenResponse(token)})
}

func (h *handler) logout(c *gin.Context) {
	if err := h.svc.Users.Logout(c.Request.Context(), currentToken(c)); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) getProfile(c *gin.Context) {
	u, err := h.svc.Users.GetProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *handler) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := bindJSON(c, &req, true); err != nil {
		writeError(c, h.logger, err)
		return
	}

	u, err := h.svc.Users.UpdateProfile(c.Request.Context(), currentUserID(c), models.ProfileUpdate{
		UserName:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Location:  req.Location,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *handler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := bindJSON(c, &req, false); err != nil {
		writeError(c, h.logger, err)
		return
	}

	err := h.svc.Users.ChangePassword(c.Request.Context(), currentUserID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
