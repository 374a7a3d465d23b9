package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/feedergraph/feedergraph/internal/energy"
	"github.com/feedergraph/feedergraph/internal/network"
	"github.com/feedergraph/feedergraph/internal/traverse"
	"github.com/feedergraph/feedergraph/internal/viz"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NetworkResponse is the full canonical graph.
type NetworkResponse struct {
	Nodes  []*network.Node    `json:"nodes"`
	Links  []network.Link     `json:"links"`
	Report network.LoadReport `json:"report"`
}

// DownstreamResponse lists everything downstream of Start.
type DownstreamResponse struct {
	Start string          `json:"start"`
	Nodes []*network.Node `json:"nodes"`
	Links []network.Link  `json:"links"`
}

// PathResponse is the upstream walk from Start.
type PathResponse struct {
	Start string `json:"start"`
	traverse.Path
}

func abortWithError(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// graph returns the session graph, or writes a 500 and returns nil.
func (s *Server) graph(c *gin.Context) *network.Graph {
	g, err := s.session.Graph(c.Request.Context())
	if err != nil {
		s.logger.Error("loading network failed", "error", err)
		abortWithError(c, http.StatusInternalServerError, "load_failed", err)
		return nil
	}
	return g
}

// node resolves the :id parameter, or writes a 404 and returns nil.
func (s *Server) node(c *gin.Context, g *network.Graph) *network.Node {
	id := c.Param("id")
	n := g.Node(id)
	if n == nil {
		abortWithError(c, http.StatusNotFound, "not_found", fmt.Errorf("%w: %s", network.ErrNodeNotFound, id))
	}
	return n
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleNetwork(c *gin.Context) {
	g := s.graph(c)
	if g == nil {
		return
	}
	c.JSON(http.StatusOK, NetworkResponse{Nodes: g.Nodes, Links: g.Links, Report: g.Report})
}

func (s *Server) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Info())
}

func (s *Server) handleReload(c *gin.Context) {
	g, err := s.session.Reload(c.Request.Context())
	if err != nil {
		s.logger.Error("reloading network failed", "error", err)
		abortWithError(c, http.StatusInternalServerError, "load_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"info": s.session.Info(), "report": g.Report})
}

func (s *Server) handleNode(c *gin.Context) {
	g := s.graph(c)
	if g == nil {
		return
	}
	n := s.node(c, g)
	if n == nil {
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *Server) handleDownstream(c *gin.Context) {
	g := s.graph(c)
	if g == nil {
		return
	}
	n := s.node(c, g)
	if n == nil {
		return
	}
	nodes := traverse.Downstream(g, n)
	c.JSON(http.StatusOK, DownstreamResponse{Start: n.ID, Nodes: nodes, Links: emptyIfNil(traverse.Links(g, nodes))})
}

func (s *Server) handlePath(c *gin.Context) {
	g := s.graph(c)
	if g == nil {
		return
	}
	n := s.node(c, g)
	if n == nil {
		return
	}
	c.JSON(http.StatusOK, PathResponse{Start: n.ID, Path: traverse.PathToRoot(g, n, s.pathOpts...)})
}

func (s *Server) handleHouseMetrics(c *gin.Context) {
	if s.metrics == nil {
		abortWithError(c, http.StatusServiceUnavailable, "no_metric_store", ErrNoMetricStore)
		return
	}

	houseID, err := strconv.Atoi(c.Param("houseId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "bad_request", errors.New("houseId must be an integer"))
		return
	}
	period, err := energy.ParsePeriod(c.Query("period"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	series, err := energy.Query(c.Request.Context(), s.metrics, period, houseID, c.Param("group"))
	switch {
	case errors.Is(err, energy.ErrUnknownGroup):
		abortWithError(c, http.StatusBadRequest, "bad_request", err)
		return
	case err != nil:
		s.logger.Error("querying metrics failed", "house_id", houseID, "error", err)
		abortWithError(c, http.StatusInternalServerError, "metrics_failed", err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (s *Server) handleViz(c *gin.Context) {
	g := s.graph(c)
	if g == nil {
		return
	}

	layout := c.DefaultQuery("layout", "preset")
	if err := viz.ValidateLayout(layout); err != nil {
		abortWithError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	data, err := viz.BuildGraph(g, viz.BuildOptions{
		Focus:       c.Query("focus"),
		Trace:       c.Query("trace"),
		PathOptions: s.pathOpts,
	})
	if errors.Is(err, network.ErrNodeNotFound) {
		abortWithError(c, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "viz_failed", err)
		return
	}

	opts := viz.DefaultOptions()
	opts.Layout = layout
	html, err := viz.GenerateHTML(data, opts)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "viz_failed", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func emptyIfNil(links []network.Link) []network.Link {
	if links == nil {
		return []network.Link{}
	}
	return links
}
