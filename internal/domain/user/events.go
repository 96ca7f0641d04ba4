package user

import "time"

type FavoriteAdded struct {
	UserID    ID
	ListingID string
	At        time.Time
}

func (e FavoriteAdded) EventName() string     { return "user.favorite_added" }
func (e FavoriteAdded) AggregateID() string   { return string(e.UserID) }
func (e FavoriteAdded) OccurredAt() time.Time { return e.At }

type FavoriteRemoved struct {
	UserID    ID
	ListingID string
	At        time.Time
}

func (e FavoriteRemoved) EventName() string     { return "user.favorite_removed" }
func (e FavoriteRemoved) AggregateID() string   { return string(e.UserID) }
func (e FavoriteRemoved) OccurredAt() time.Time { return e.At }
