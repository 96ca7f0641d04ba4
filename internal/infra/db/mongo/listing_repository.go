package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "rentlona/internal/domain/listings"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(listingsCollection)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) ByIDs(ctx context.Context, ids []domainlistings.ListingID) (map[domainlistings.ListingID]*domainlistings.Listing, error) {
	out := make(map[domainlistings.ListingID]*domainlistings.Listing, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, string(id))
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": raw}})
	if err != nil {
		return nil, err
	}
	var docs []listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, doc := range docs {
		l := doc.toAggregate()
		out[l.ID] = l
	}
	return out, nil
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	if l == nil || l.ID == "" {
		return domainlistings.ErrIDRequired
	}
	doc := newListingDocument(l)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlistings.ListingID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainlistings.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) ([]*domainlistings.Listing, error) {
	opts := params.Normalized()
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	cur, err := r.col.Find(ctx, searchFilter(opts), findOpts)
	if err != nil {
		return nil, err
	}
	var docs []listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainlistings.Listing, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

// searchFilter mirrors SearchParams.Matches. User text is quoted so it is
// matched literally.
func searchFilter(p domainlistings.SearchParams) bson.M {
	filter := bson.M{}
	if p.Category != "" {
		filter["category"] = string(p.Category)
	}
	if p.Owner != "" {
		filter["owner"] = string(p.Owner)
	}
	if p.Status != "" {
		filter["status"] = string(p.Status)
	}
	price := bson.M{}
	if p.MinPrice != nil {
		price["$gte"] = *p.MinPrice
	}
	if p.MaxPrice != nil {
		price["$lte"] = *p.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	if p.City != "" {
		filter["location.city"] = containsRegex(p.City)
	}
	if p.Text != "" {
		filter["$or"] = bson.A{
			bson.M{"title": containsRegex(p.Text)},
			bson.M{"description": containsRegex(p.Text)},
		}
	}
	return filter
}

func containsRegex(text string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"}
}

type listingDocument struct {
	ID             string           `bson:"_id"`
	Owner          string           `bson:"owner"`
	Title          string           `bson:"title"`
	Description    string           `bson:"description"`
	Category       string           `bson:"category"`
	Price          float64          `bson:"price"`
	RentalPeriod   string           `bson:"rental_period"`
	ContactNumber  string           `bson:"contact_number"`
	Location       locationDocument `bson:"location"`
	Images         []imageDocument  `bson:"images"`
	Specifications map[string]any   `bson:"specifications,omitempty"`
	Status         string           `bson:"status"`
	CreatedAt      time.Time        `bson:"created_at"`
	UpdatedAt      time.Time        `bson:"updated_at"`
}

type locationDocument struct {
	Address     string               `bson:"address,omitempty"`
	City        string               `bson:"city,omitempty"`
	State       string               `bson:"state,omitempty"`
	ZipCode     string               `bson:"zip_code,omitempty"`
	Coordinates *coordinatesDocument `bson:"coordinates,omitempty"`
}

type coordinatesDocument struct {
	Lat float64 `bson:"lat"`
	Lng float64 `bson:"lng"`
}

type imageDocument struct {
	URL          string `bson:"url"`
	Alt          string `bson:"alt,omitempty"`
	ThumbnailURL string `bson:"thumbnail_url,omitempty"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	images := make([]imageDocument, 0, len(l.Images))
	for _, img := range l.Images {
		images = append(images, imageDocument{URL: img.URL, Alt: img.Alt, ThumbnailURL: img.ThumbnailURL})
	}
	loc := locationDocument{
		Address: l.Location.Address,
		City:    l.Location.City,
		State:   l.Location.State,
		ZipCode: l.Location.ZipCode,
	}
	if c := l.Location.Coordinates; c != nil {
		loc.Coordinates = &coordinatesDocument{Lat: c.Lat, Lng: c.Lng}
	}
	return listingDocument{
		ID:             string(l.ID),
		Owner:          string(l.Owner),
		Title:          l.Title,
		Description:    l.Description,
		Category:       string(l.Category),
		Price:          l.Price,
		RentalPeriod:   string(l.RentalPeriod),
		ContactNumber:  l.ContactNumber,
		Location:       loc,
		Images:         images,
		Specifications: l.Specifications,
		Status:         string(l.Status),
		CreatedAt:      l.CreatedAt.UTC(),
		UpdatedAt:      l.UpdatedAt.UTC(),
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	var images []domainlistings.Image
	for _, img := range d.Images {
		images = append(images, domainlistings.Image{URL: img.URL, Alt: img.Alt, ThumbnailURL: img.ThumbnailURL})
	}
	loc := domainlistings.Location{
		Address: d.Location.Address,
		City:    d.Location.City,
		State:   d.Location.State,
		ZipCode: d.Location.ZipCode,
	}
	if c := d.Location.Coordinates; c != nil {
		loc.Coordinates = &domainlistings.Coordinates{Lat: c.Lat, Lng: c.Lng}
	}
	return &domainlistings.Listing{
		ID:             domainlistings.ListingID(d.ID),
		Owner:          domainlistings.OwnerID(d.Owner),
		Title:          d.Title,
		Description:    d.Description,
		Category:       domainlistings.Category(d.Category),
		Price:          d.Price,
		RentalPeriod:   domainlistings.RentalPeriod(d.RentalPeriod),
		ContactNumber:  d.ContactNumber,
		Location:       loc,
		Images:         images,
		Specifications: d.Specifications,
		Status:         domainlistings.Status(d.Status),
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

var _ domainlistings.ListingRepository = (*ListingRepository)(nil)
