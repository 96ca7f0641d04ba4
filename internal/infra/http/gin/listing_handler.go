package ginserver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentlona/internal/app/commands"
	"rentlona/internal/app/dto"
	listingapp "rentlona/internal/app/handlers/listings"
	"rentlona/internal/app/queries"
	domainlistings "rentlona/internal/domain/listings"
	"rentlona/internal/domain/shared/validation"
)

const (
	idempotencyHeader = "Idempotency-Key"
	// anyLocation is the client's "no city filter" choice.
	anyLocation          = "All India"
	defaultMaxImageBytes = 5 << 20
)

type ListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
	// MaxImageBytes limits each uploaded file.
	MaxImageBytes int64
}

func (h ListingHandler) Search(c *gin.Context) {
	params, err := searchParamsFromQuery(c)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	result, err := queries.Ask[listingapp.SearchListingsQuery, []dto.Listing](c.Request.Context(), h.Queries, listingapp.SearchListingsQuery{Params: params})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func searchParamsFromQuery(c *gin.Context) (domainlistings.SearchParams, error) {
	var v validation.Collector
	params := domainlistings.SearchParams{
		Category: domainlistings.Category(strings.ToLower(strings.TrimSpace(c.Query("category")))),
		Text:     c.Query("search"),
		MinPrice: parseFloatQuery(&v, c, "minPrice"),
		MaxPrice: parseFloatQuery(&v, c, "maxPrice"),
		Limit:    parseIntQuery(&v, c, "limit"),
		Offset:   parseIntQuery(&v, c, "offset"),
	}
	if city := strings.TrimSpace(c.Query("location")); !strings.EqualFold(city, anyLocation) {
		params.City = city
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, ok := domainlistings.ParseStatus(raw)
		v.Check(ok, "status", "must be active, inactive or rented")
		params.Status = status
	}
	return params, v.Err()
}

func parseFloatQuery(v *validation.Collector, c *gin.Context, name string) *float64 {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		v.Add(name, "must be a number")
		return nil
	}
	return &f
}

func parseIntQuery(v *validation.Collector, c *gin.Context, name string) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		v.Add(name, "must be a non-negative integer")
		return 0
	}
	return n
}

func (h ListingHandler) Get(c *gin.Context) {
	result, err := queries.Ask[listingapp.GetListingQuery, *dto.Listing](c.Request.Context(), h.Queries, listingapp.GetListingQuery{ListingID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Create(c *gin.Context) {
	p, ok := requireAuth(c, h.Logger)
	if !ok {
		return
	}
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	payload, err := req.payload()
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := listingapp.CreateListingCommand{
		OwnerID:    p.ID,
		Payload:    payload,
		RequestKey: c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[listingapp.CreateListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/listings/%s", result.ID))
	c.JSON(http.StatusCreated, result)
}

func (h ListingHandler) Upload(c *gin.Context) {
	p, ok := requireAuth(c, h.Logger)
	if !ok {
		return
	}
	maxImage := h.MaxImageBytes
	if maxImage <= 0 {
		maxImage = defaultMaxImageBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImage*listingapp.MaxUploadFiles+1<<20)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, h.Logger, err)
			return
		}
		respondError(c, h.Logger, validation.Field("images", "expected a multipart form"))
		return
	}
	headers := form.File["images"]
	if len(headers) > listingapp.MaxUploadFiles {
		respondError(c, h.Logger, validation.Field("images", fmt.Sprintf("at most %d files per request", listingapp.MaxUploadFiles)))
		return
	}
	files := make([]listingapp.ImageFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxImage {
			respondError(c, h.Logger, validation.Field("images", fmt.Sprintf("%s exceeds %d bytes", fh.Filename, maxImage)))
			return
		}
		file, err := readImage(fh)
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		files = append(files, file)
	}
	result, err := commands.Dispatch[listingapp.UploadImagesCommand, *dto.UploadedImages](c.Request.Context(), h.Commands, listingapp.UploadImagesCommand{
		OwnerID: p.ID,
		Files:   files,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func readImage(fh *multipart.FileHeader) (listingapp.ImageFile, error) {
	src, err := fh.Open()
	if err != nil {
		return listingapp.ImageFile{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return listingapp.ImageFile{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	contentType := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return listingapp.ImageFile{Filename: fh.Filename, ContentType: contentType, Data: data}, nil
}

func (h ListingHandler) Update(c *gin.Context) {
	p, ok := requireAuth(c, h.Logger)
	if !ok {
		return
	}
	cmd := listingapp.UpdateListingCommand{OwnerID: p.ID, ListingID: c.Param("id")}
	// A bad body is reported only after ownership has been confirmed.
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		cmd.Invalid = err
	} else if patch, err := req.patch(); err != nil {
		cmd.Invalid = err
	} else {
		cmd.Patch = patch
	}
	result, err := commands.Dispatch[listingapp.UpdateListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Delete(c *gin.Context) {
	p, ok := requireAuth(c, h.Logger)
	if !ok {
		return
	}
	cmd := listingapp.DeleteListingCommand{OwnerID: p.ID, ListingID: c.Param("id")}
	if _, err := commands.Dispatch[listingapp.DeleteListingCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listing deleted"})
}

func (h ListingHandler) Mine(c *gin.Context) {
	p, ok := requireAuth(c, h.Logger)
	if !ok {
		return
	}
	h.ownerListings(c, p.ID)
}

func (h ListingHandler) ByOwner(c *gin.Context) {
	h.ownerListings(c, c.Param("userId"))
}

func (h ListingHandler) ownerListings(c *gin.Context, owner string) {
	result, err := queries.Ask[listingapp.ListOwnerListingsQuery, []dto.Listing](c.Request.Context(), h.Queries, listingapp.ListOwnerListingsQuery{OwnerID: owner})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ListingHTTP = ListingHandler{}
