package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainmessages "rentlona/internal/domain/messages"
	domainuser "rentlona/internal/domain/user"
)

type MessageRepository struct {
	col *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{col: db.Collection(messagesCollection)}
}

func (r *MessageRepository) Add(ctx context.Context, msg *domainmessages.Message) error {
	if msg == nil || msg.ID == "" {
		return domainmessages.ErrIDRequired
	}
	_, err := r.col.InsertOne(ctx, newMessageDocument(msg))
	if mongo.IsDuplicateKeyError(err) {
		return domainmessages.ErrDuplicateMessage
	}
	return err
}

func (r *MessageRepository) Thread(ctx context.Context, threadID domainmessages.ThreadID) ([]*domainmessages.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"thread_id": string(threadID)}, opts)
}

func (r *MessageRepository) ForUser(ctx context.Context, userID domainuser.ID) ([]*domainmessages.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, participantFilter(userID), opts)
}

// Conversations runs the grouping in the database. Sorting by (created_at, _id)
// before $group makes $last pick the same message messages.Summarize would.
func (r *MessageRepository) Conversations(ctx context.Context, viewer domainuser.ID) ([]domainmessages.Summary, error) {
	cur, err := r.col.Aggregate(ctx, conversationsPipeline(viewer))
	if err != nil {
		return nil, err
	}
	var rows []conversationRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]domainmessages.Summary, 0, len(rows))
	for _, row := range rows {
		out = append(out, domainmessages.Summary{
			ThreadID: domainmessages.ThreadID(row.ThreadID),
			Last:     row.Last.toAggregate(),
			Count:    row.Count,
			Unread:   row.Unread,
		})
	}
	return out, nil
}

func (r *MessageRepository) MarkThreadRead(ctx context.Context, threadID domainmessages.ThreadID, receiver domainuser.ID) (int, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"thread_id": string(threadID), "receiver": string(receiver), "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return int(res.ModifiedCount), nil
}

func (r *MessageRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainmessages.Message, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []messageDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainmessages.Message, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

func participantFilter(userID domainuser.ID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"sender": string(userID)},
		bson.M{"receiver": string(userID)},
	}}
}

func conversationsPipeline(viewer domainuser.ID) mongo.Pipeline {
	v := string(viewer)
	return mongo.Pipeline{
		{{Key: "$match", Value: participantFilter(viewer)}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$thread_id"},
			{Key: "last", Value: bson.M{"$last": "$$ROOT"}},
			{Key: "count", Value: bson.M{"$sum": 1}},
			{Key: "unread", Value: bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$receiver", v}},
					bson.M{"$eq": bson.A{"$read", false}},
				}},
				1,
				0,
			}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "last.created_at", Value: -1}, {Key: "_id", Value: 1}}}},
	}
}

type conversationRow struct {
	ThreadID string          `bson:"_id"`
	Last     messageDocument `bson:"last"`
	Count    int             `bson:"count"`
	Unread   int             `bson:"unread"`
}

type messageDocument struct {
	ID        string    `bson:"_id"`
	Sender    string    `bson:"sender"`
	Receiver  string    `bson:"receiver"`
	Content   string    `bson:"content"`
	ThreadID  string    `bson:"thread_id"`
	Read      bool      `bson:"read"`
	CreatedAt time.Time `bson:"created_at"`
}

func newMessageDocument(m *domainmessages.Message) messageDocument {
	return messageDocument{
		ID:        string(m.ID),
		Sender:    string(m.Sender),
		Receiver:  string(m.Receiver),
		Content:   m.Content,
		ThreadID:  string(m.ThreadID),
		Read:      m.Read,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func (d messageDocument) toAggregate() *domainmessages.Message {
	return &domainmessages.Message{
		ID:        domainmessages.MessageID(d.ID),
		Sender:    domainuser.ID(d.Sender),
		Receiver:  domainuser.ID(d.Receiver),
		Content:   d.Content,
		ThreadID:  domainmessages.ThreadID(d.ThreadID),
		Read:      d.Read,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

var _ domainmessages.Repository = (*MessageRepository)(nil)
