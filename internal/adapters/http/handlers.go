package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/dkeye/liveview/internal/adapters/directory"
	"github.com/dkeye/liveview/internal/app"
	"github.com/dkeye/liveview/internal/app/orch"
	"github.com/dkeye/liveview/internal/core"
	"github.com/dkeye/liveview/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Missing []domain.DeviceID `json:"missing,omitempty"`
}

type startRequest struct {
	DeviceIDs []domain.DeviceID `json:"device_ids"`
}

type activeRequest struct {
	DeviceID domain.DeviceID `json:"device_id" binding:"required"`
}

type muteRequest struct {
	Muted *bool `json:"muted" binding:"required"`
}

type talkResponse struct {
	DeviceID domain.DeviceID `json:"device_id"`
	Talking  bool            `json:"talking"`
}

func (a *api) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *api) listStreams(c *gin.Context) {
	c.JSON(http.StatusOK, a.streams.Overview())
}

// startStreams replaces the table with the requested devices, or every known
// device when the body is empty, and answers before negotiation finishes.
func (a *api) startStreams(c *gin.Context) {
	var req startRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
			return
		}
	}

	devices, missing, err := directory.Lookup(c.Request.Context(), a.devices, req.DeviceIDs)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("device lookup")
		c.JSON(http.StatusBadGateway, errorResponse{Error: "device directory unavailable"})
		return
	}
	if len(missing) > 0 {
		c.JSON(http.StatusNotFound, errorResponse{Error: "unknown devices", Missing: missing})
		return
	}
	if len(devices) == 0 {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "no devices to start"})
		return
	}

	go a.streams.StartAllStreams(a.ctx, devices)
	log.Info().Str("module", "adapters.http").Int("devices", len(devices)).Msg("start batch accepted")
	c.JSON(http.StatusAccepted, a.streams.Overview())
}

func (a *api) stopStreams(c *gin.Context) {
	a.streams.StopAllStreams(context.WithoutCancel(c.Request.Context()))
	c.JSON(http.StatusOK, a.streams.Overview())
}

func (a *api) retryStream(c *gin.Context) {
	id, ok := deviceParam(c)
	if !ok {
		return
	}
	row, found := findStream(a.streams.Overview(), id)
	if !found {
		c.JSON(http.StatusNotFound, errorResponse{Error: orch.ErrUnknownDevice.Error()})
		return
	}
	if row.State != core.StateIdle && !row.State.Terminal() {
		c.JSON(http.StatusConflict, errorResponse{Error: orch.ErrStreamBusy.Error()})
		return
	}

	go func() {
		if err := a.streams.RetryStream(a.ctx, id); err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Int64("device", int64(id)).Msg("retry failed")
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"device_id": id})
}

func (a *api) startTalk(c *gin.Context) {
	id, ok := deviceParam(c)
	if !ok {
		return
	}
	if !a.streams.StartTalking(id) {
		c.JSON(http.StatusConflict, errorResponse{Error: "stream is not connected"})
		return
	}
	c.JSON(http.StatusOK, talkResponse{DeviceID: id, Talking: true})
}

func (a *api) stopTalk(c *gin.Context) {
	id, ok := deviceParam(c)
	if !ok {
		return
	}
	a.streams.StopTalking(id)
	c.JSON(http.StatusOK, talkResponse{DeviceID: id, Talking: false})
}

func (a *api) setActive(c *gin.Context) {
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DeviceID <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "missing or invalid device_id"})
		return
	}
	if err := a.streams.SetActiveDevice(req.DeviceID); err != nil {
		if errors.Is(err, orch.ErrUnknownDevice) {
			c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, a.streams.Overview())
}

func (a *api) setMute(c *gin.Context) {
	var req muteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "missing muted flag"})
		return
	}
	a.streams.SetMuted(*req.Muted)
	c.JSON(http.StatusOK, a.streams.Overview())
}

func deviceParam(c *gin.Context) (domain.DeviceID, bool) {
	id, err := domain.ParseDeviceID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid device id"})
		return 0, false
	}
	return id, true
}

func findStream(ov app.Overview, id domain.DeviceID) (app.StreamStatus, bool) {
	for _, st := range ov.Streams {
		if st.DeviceID == id {
			return st, true
		}
	}
	return app.StreamStatus{}, false
}
