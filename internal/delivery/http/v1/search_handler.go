package v1

import (
	"net/http"
	"net/url"
	"strconv"

	"exec-marketplace-backend/internal/delivery/http/response"
	"exec-marketplace-backend/internal/domain"
	"exec-marketplace-backend/internal/search"
	"exec-marketplace-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	searchUC domain.SearchUsecase
}

func NewSearchHandler(public *gin.RouterGroup, searchUC domain.SearchUsecase) {
	handler := &SearchHandler{searchUC: searchUC}

	// Search is available to anonymous callers in public mode; the
	// optional-auth middleware on the group resolves the viewer when a
	// token is present.
	public.GET("/search", handler.Search)
	public.POST("/search", handler.SearchForm)
	public.GET("/candidates/:id", handler.GetCandidate)
}

// Search godoc
// @Summary      Search candidate profiles
// @Description  Filter the candidate pool; anonymous callers get fully redacted previews
// @Tags         search
// @Produce      json
// @Param        query             query  string  false  "Free-text query over title/summary/location"
// @Param        role              query  string  false  "Comma-separated roles"
// @Param        sectors           query  string  false  "Comma-separated sectors"
// @Param        skills            query  string  false  "Comma-separated skills"
// @Param        boardExperience   query  string  false  "Comma-separated board experience types"
// @Param        experience        query  string  false  "Experience level"
// @Param        location          query  string  false  "Location"
// @Param        salaryMin         query  int     false  "Minimum salary"
// @Param        salaryMax         query  int     false  "Maximum salary"
// @Param        page              query  int     false  "Page number"
// @Param        limit             query  int     false  "Page size (max 100)"
// @Param        sortBy            query  string  false  "relevance|salary|updated|alphabetical|experience"
// @Param        sortOrder         query  string  false  "asc|desc"
// @Success      200  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Router       /search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	h.run(c, c.Request.URL.Query())
}

// SearchForm accepts the same fields as a form body for clients that POST.
func (h *SearchHandler) SearchForm(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.Error(apperror.BadRequest("Malformed form body"))
		return
	}
	h.run(c, url.Values(c.Request.PostForm))
}

func (h *SearchHandler) run(c *gin.Context, values url.Values) {
	criteria := search.Decode(values)

	result, err := h.searchUC.Search(requestContext(c), criteria)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Search results", result)
}

// GetCandidate godoc
// @Summary      Get one candidate profile view
// @Description  Returns the redacted preview, or the full record when the viewer has unlocked it
// @Tags         search
// @Produce      json
// @Param        id  path  int  true  "Candidate ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /candidates/{id} [get]
func (h *SearchHandler) GetCandidate(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(apperror.BadRequest("Invalid ID format"))
		return
	}

	view, err := h.searchUC.GetProfileView(requestContext(c), id)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Candidate profile", view)
}
