package ui

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"gotendency/domain/sample"
	"gotendency/internal/errors"
	"gotendency/internal/session"
	"gotendency/internal/tendency"
)

// paramsRequest carries a partial control update; absent fields keep their value
type paramsRequest struct {
	SampleSize      *int  `form:"n" json:"n" binding:"omitempty,min=0,max=10000"`
	Bins            *int  `form:"n_bins" json:"n_bins" binding:"omitempty,min=0,max=100"`
	OutliersEnabled *bool `form:"outliers" json:"outliers"`
	OutlierOffset   *int  `form:"offset_outliers" json:"offset_outliers" binding:"omitempty,min=0,max=50"`
	OutlierCount    *int  `form:"n_outliers" json:"n_outliers" binding:"omitempty,min=0,max=10"`
}

func (r paramsRequest) apply(p *sample.Params) {
	if r.SampleSize != nil {
		p.SampleSize = *r.SampleSize
	}
	if r.Bins != nil {
		p.Bins = *r.Bins
	}
	if r.OutliersEnabled != nil {
		p.OutliersEnabled = *r.OutliersEnabled
	}
	if r.OutlierOffset != nil {
		p.OutlierOffset = *r.OutlierOffset
	}
	if r.OutlierCount != nil {
		p.OutlierCount = *r.OutlierCount
	}
}

// stateResponse describes a session after an update
type stateResponse struct {
	Params            sample.Params `json:"params"`
	MeasureTendencies string        `json:"measure_tendencies"`
	Mean              float64       `json:"mean"`
	Median            float64       `json:"median"`
	Shape             sample.Shape  `json:"shape"`
	BaseLen           int           `json:"base_len"`
	WorkingLen        int           `json:"working_len"`
	BinsUsed          int           `json:"bins_used"`
	Version           uint64        `json:"version"`
}

type indexView struct {
	Labels     sample.Labels
	Ranges     rangesView
	Params     sample.Params
	Tendencies string
	Version    uint64
	About      template.HTML
}

type rangesView struct {
	SampleSize, Bins, OutlierOffset, OutlierCount sample.Range
}

func (s *Server) state(sess *session.Session) (stateResponse, error) {
	snap := sess.Snapshot()
	t, err := s.reporter.Measure(snap.Working)
	if err != nil {
		return stateResponse{}, err
	}
	shape, err := s.reporter.Describe(snap.Working)
	if err != nil {
		return stateResponse{}, err
	}
	return stateResponse{
		Params:            snap.Params,
		MeasureTendencies: tendency.Format(t),
		Mean:              t.Mean,
		Median:            t.Median,
		Shape:             shape,
		BaseLen:           len(snap.Base),
		WorkingLen:        len(snap.Working),
		BinsUsed:          snap.Params.EffectiveBins(),
		Version:           snap.Version,
	}, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessions.Len()})
}

func (s *Server) handleIndex(c *gin.Context) {
	sess := currentSession(c)
	st, err := s.state(sess)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.renderTemplate(c, "index.html", indexView{
		Labels: s.labels,
		Ranges: rangesView{
			SampleSize:    sample.SampleSizeRange,
			Bins:          sample.BinsRange,
			OutlierOffset: sample.OutlierOffsetRange,
			OutlierCount:  sample.OutlierCountRange,
		},
		Params:     st.Params,
		Tendencies: st.MeasureTendencies,
		Version:    st.Version,
		About:      s.about,
	})
}

func (s *Server) handleParams(c *gin.Context) {
	var req paramsRequest
	if err := c.ShouldBind(&req); err != nil {
		s.writeError(c, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}

	sess := currentSession(c)
	if err := sess.Update(req.apply); err != nil {
		s.writeError(c, err)
		return
	}
	s.respondState(c, sess)
}

func (s *Server) handleTendencies(c *gin.Context) {
	text, err := s.reporter.Report(currentSession(c).Snapshot().Working)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

func (s *Server) handlePlot(c *gin.Context) {
	png, err := s.visualizer.Render(c.Request.Context(), currentSession(c).Snapshot())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) handleState(c *gin.Context) {
	s.respondState(c, currentSession(c))
}

func (s *Server) handleReset(c *gin.Context) {
	sess := currentSession(c)
	if err := sess.Reset(); err != nil {
		s.writeError(c, err)
		return
	}
	s.respondState(c, sess)
}

func (s *Server) respondState(c *gin.Context, sess *session.Session) {
	st, err := s.state(sess)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
