package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liventcord/LiventCord-sub002/internal/models"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const messageColumns = `m.message_id, m.user_id, m.channel_id, m.content, m.date, m.last_edited,
		        m.reply_to_id, m.reaction_emojis_ids, m.metadata, m.embeds,
		        m.is_system_message, m.temporary_id,
		        EXISTS (SELECT 1 FROM channel_pinned_messages p
		                WHERE p.channel_id = m.channel_id AND p.message_id = m.message_id)`

type messageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepo{pool: pool}
}

func (r *messageRepo) Create(ctx context.Context, msg *models.Message) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertMessage(ctx, tx, msg); err != nil {
		return err
	}
	if err := bumpVersion(ctx, tx, msg.ChannelID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *messageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	msgs, err := queryMessages(ctx, r.pool,
		`SELECT `+messageColumns+`
		 FROM messages m WHERE m.message_id = $1`, id,
	)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return &msgs[0], nil
}

func (r *messageRepo) GetExisting(ctx context.Context, ids []string) (map[string]*models.Message, error) {
	existing := make(map[string]*models.Message, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}
	msgs, err := queryMessages(ctx, r.pool,
		`SELECT `+messageColumns+`
		 FROM messages m WHERE m.message_id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		existing[msgs[i].MessageID] = &msgs[i]
	}
	return existing, nil
}

func (r *messageRepo) GetPage(ctx context.Context, q models.MessagePageQuery) ([]models.Message, error) {
	return queryMessages(ctx, r.pool,
		`SELECT `+messageColumns+`
		 FROM messages m
		 INNER JOIN channels c ON c.channel_id = m.channel_id
		 WHERE m.channel_id = $1
		   AND ($2::TIMESTAMPTZ IS NULL OR m.date < $2)
		   AND ($3 = '' OR m.message_id = $3)
		   AND ($4 = '' OR c.guild_id = $4)
		 ORDER BY m.date DESC, m.message_id DESC
		 LIMIT $5`,
		q.ChannelID, q.Before, q.MessageID, q.GuildID, q.Limit,
	)
}

func (r *messageRepo) UpdateContent(ctx context.Context, channelID, messageID, authorID, content string, editedAt time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE messages SET content = $4, last_edited = $5
		 WHERE channel_id = $1 AND message_id = $2 AND user_id = $3`,
		channelID, messageID, authorID, content, editedAt.UTC(),
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if err := bumpVersion(ctx, tx, channelID); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

func (r *messageRepo) UpdateBotMessage(ctx context.Context, msg *models.Message, replaceEmbeds bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var embeds []byte
	if replaceEmbeds {
		embeds, err = marshalEmbeds(msg.Embeds)
		if err != nil {
			return err
		}
	}
	_, err = tx.Exec(ctx,
		`UPDATE messages
		 SET content = $2, last_edited = $3, reply_to_id = $4, reaction_emojis_ids = $5,
		     embeds = COALESCE($6::JSONB, embeds)
		 WHERE message_id = $1`,
		msg.MessageID, msg.Content, msg.LastEdited, msg.ReplyToID, msg.ReactionEmojisIDs, embeds,
	)
	if err != nil {
		return err
	}

	if msg.Attachments != nil {
		if _, err := tx.Exec(ctx,
			`DELETE FROM attachments WHERE message_id = $1 AND is_proxy_file`, msg.MessageID,
		); err != nil {
			return err
		}
		if err := insertAttachments(ctx, tx, msg.MessageID, msg.Attachments); err != nil {
			return err
		}
	}
	if err := bumpVersion(ctx, tx, msg.ChannelID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *messageRepo) UpdateMetadata(ctx context.Context, messageID string, md *models.Metadata) error {
	data, err := marshalMetadata(md)
	if err != nil {
		return err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var channelID string
	err = tx.QueryRow(ctx,
		`UPDATE messages SET metadata = $2 WHERE message_id = $1 RETURNING channel_id`,
		messageID, data,
	).Scan(&channelID)
	if err == pgx.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	if err := bumpVersion(ctx, tx, channelID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *messageRepo) Delete(ctx context.Context, channelID, messageID string) ([]models.Attachment, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	removed, err := loadAttachments(ctx, tx, []string{messageID})
	if err != nil {
		return nil, false, err
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM channel_pinned_messages WHERE channel_id = $1 AND message_id = $2`,
		channelID, messageID,
	); err != nil {
		return nil, false, err
	}

	var urls []string
	err = tx.QueryRow(ctx,
		`DELETE FROM message_urls WHERE message_id = $1 RETURNING urls`, messageID,
	).Scan(&urls)
	if err != nil && err != pgx.ErrNoRows {
		return nil, false, err
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM messages WHERE channel_id = $1 AND message_id = $2`,
		channelID, messageID,
	)
	if err != nil {
		return nil, false, err
	}
	if tag.RowsAffected() == 0 {
		return nil, false, nil
	}

	if len(urls) > 0 {
		if _, err := tx.Exec(ctx,
			`DELETE FROM media_urls mu
			 WHERE mu.url = ANY($1)
			   AND NOT EXISTS (SELECT 1 FROM message_urls u WHERE mu.url = ANY(u.urls))`,
			urls,
		); err != nil {
			return nil, false, err
		}
	}

	if err := bumpVersion(ctx, tx, channelID); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return removed[messageID], true, nil
}

func (r *messageRepo) Search(ctx context.Context, s models.MessageSearch) ([]models.Message, int, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	where = append(where, "m.content IS NOT NULL")
	if s.GuildID != "" {
		where = append(where, "c.guild_id = "+arg(s.GuildID))
	}
	if s.ChannelID != "" {
		where = append(where, "m.channel_id = "+arg(s.ChannelID))
	}
	if s.Query != "" {
		where = append(where, `m.content ILIKE '%' || `+arg(escapeLike(s.Query))+` || '%' ESCAPE '\'`)
	}
	if s.FromUserID != "" {
		where = append(where, "m.user_id = "+arg(s.FromUserID))
	}
	if s.Before != nil {
		where = append(where, "m.date < "+arg(s.Before.UTC()))
	}
	if s.After != nil {
		where = append(where, "m.date > "+arg(s.After.UTC()))
	}
	if s.During != nil {
		d := s.During.UTC()
		start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		where = append(where, "m.date >= "+arg(start), "m.date < "+arg(start.AddDate(0, 0, 1)))
	}

	from := ` FROM messages m
		 INNER JOIN channels c ON c.channel_id = m.channel_id
		 WHERE ` + strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+from, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return nil, 0, nil
	}

	order := "DESC"
	if s.Ascending {
		order = "ASC"
	}
	query := `SELECT ` + messageColumns + from +
		` ORDER BY m.date ` + order + `, m.message_id ` + order +
		` LIMIT ` + arg(s.Limit) + ` OFFSET ` + arg(s.Offset)

	msgs, err := queryMessages(ctx, r.pool, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

func (r *messageRepo) ListPinned(ctx context.Context, channelID string) ([]models.Message, error) {
	return queryMessages(ctx, r.pool,
		`SELECT `+messageColumns+`
		 FROM messages m
		 INNER JOIN channel_pinned_messages pin
		         ON pin.channel_id = m.channel_id AND pin.message_id = m.message_id
		 WHERE m.channel_id = $1
		 ORDER BY pin.pinned_at DESC`, channelID,
	)
}

func (r *messageRepo) ListWithURLs(ctx context.Context, channelID string, limit int) ([]models.Message, error) {
	return queryMessages(ctx, r.pool,
		`SELECT `+messageColumns+`
		 FROM messages m
		 INNER JOIN message_urls u ON u.message_id = m.message_id
		 WHERE m.channel_id = $1
		 ORDER BY m.date DESC
		 LIMIT $2`, channelID, limit,
	)
}

func insertMessage(ctx context.Context, tx pgx.Tx, msg *models.Message) error {
	if msg.Embeds == nil {
		msg.Embeds = []models.Embed{}
	}
	embeds, err := marshalEmbeds(msg.Embeds)
	if err != nil {
		return err
	}
	metadata, err := marshalMetadata(msg.Metadata)
	if err != nil {
		return err
	}
	msg.Date = msg.Date.UTC()

	_, err = tx.Exec(ctx,
		`INSERT INTO messages (message_id, user_id, channel_id, content, date, last_edited,
		                       reply_to_id, reaction_emojis_ids, metadata, embeds,
		                       is_system_message, temporary_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		msg.MessageID, msg.UserID, msg.ChannelID, msg.Content, msg.Date, msg.LastEdited,
		msg.ReplyToID, msg.ReactionEmojisIDs, metadata, embeds,
		msg.IsSystemMessage, msg.TemporaryID,
	)
	if err != nil {
		return err
	}
	return insertAttachments(ctx, tx, msg.MessageID, msg.Attachments)
}

func insertAttachments(ctx context.Context, tx pgx.Tx, messageID string, attachments []models.Attachment) error {
	for i := range attachments {
		a := &attachments[i]
		a.MessageID = messageID
		_, err := tx.Exec(ctx,
			`INSERT INTO attachments (file_id, message_id, file_name, file_size, is_image_file,
			                          is_video_file, is_spoiler, is_proxy_file, proxy_url)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			a.FileID, a.MessageID, a.FileName, a.FileSize, a.IsImageFile,
			a.IsVideoFile, a.IsSpoiler, a.IsProxyFile, a.ProxyURL,
		)
		if err != nil {
			return fmt.Errorf("inserting attachment %s: %w", a.FileID, err)
		}
	}
	return nil
}

func bumpVersion(ctx context.Context, q querier, channelID string) error {
	_, err := q.Exec(ctx,
		`UPDATE channels SET version = version + 1 WHERE channel_id = $1`, channelID,
	)
	return err
}

// queryMessages runs a query selecting messageColumns and loads the
// attachments of every returned message.
func queryMessages(ctx context.Context, q querier, sql string, args ...any) ([]models.Message, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var (
			m        models.Message
			metadata []byte
			embeds   []byte
		)
		if err := rows.Scan(
			&m.MessageID, &m.UserID, &m.ChannelID, &m.Content, &m.Date, &m.LastEdited,
			&m.ReplyToID, &m.ReactionEmojisIDs, &metadata, &embeds,
			&m.IsSystemMessage, &m.TemporaryID, &m.IsPinned,
		); err != nil {
			return nil, err
		}
		if err := decodeMessageJSON(&m, metadata, embeds); err != nil {
			return nil, err
		}
		m.Date = m.Date.UTC()
		if m.LastEdited != nil {
			t := m.LastEdited.UTC()
			m.LastEdited = &t
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(messages) == 0 {
		return messages, nil
	}
	ids := make([]string, len(messages))
	for i := range messages {
		ids[i] = messages[i].MessageID
	}
	byMessage, err := loadAttachments(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		messages[i].Attachments = byMessage[messages[i].MessageID]
		if messages[i].Attachments == nil {
			messages[i].Attachments = []models.Attachment{}
		}
	}
	return messages, nil
}

func loadAttachments(ctx context.Context, q querier, messageIDs []string) (map[string][]models.Attachment, error) {
	rows, err := q.Query(ctx,
		`SELECT file_id, message_id, file_name, file_size, is_image_file,
		        is_video_file, is_spoiler, is_proxy_file, proxy_url
		 FROM attachments
		 WHERE message_id = ANY($1)
		 ORDER BY file_id`, messageIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byMessage := make(map[string][]models.Attachment)
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		byMessage[a.MessageID] = append(byMessage[a.MessageID], a)
	}
	return byMessage, rows.Err()
}

func scanAttachment(row pgx.Row) (models.Attachment, error) {
	var a models.Attachment
	err := row.Scan(&a.FileID, &a.MessageID, &a.FileName, &a.FileSize, &a.IsImageFile,
		&a.IsVideoFile, &a.IsSpoiler, &a.IsProxyFile, &a.ProxyURL)
	return a, err
}

func decodeMessageJSON(m *models.Message, metadata, embeds []byte) error {
	if len(metadata) > 0 {
		md := &models.Metadata{}
		if err := json.Unmarshal(metadata, md); err != nil {
			return fmt.Errorf("decoding metadata of %s: %w", m.MessageID, err)
		}
		m.Metadata = md
	}
	m.Embeds = []models.Embed{}
	if len(embeds) > 0 {
		if err := json.Unmarshal(embeds, &m.Embeds); err != nil {
			return fmt.Errorf("decoding embeds of %s: %w", m.MessageID, err)
		}
	}
	return nil
}

func marshalEmbeds(embeds []models.Embed) ([]byte, error) {
	if embeds == nil {
		embeds = []models.Embed{}
	}
	return json.Marshal(embeds)
}

// marshalMetadata stores an empty object for nil metadata.
func marshalMetadata(md *models.Metadata) ([]byte, error) {
	if md == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(md)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
