package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liventcord/LiventCord-sub002/internal/permissions"
	"github.com/liventcord/LiventCord-sub002/internal/snowflake"
	"github.com/spf13/cobra"
)

const (
	aliceID = "100000000000000001"
	bobID   = "100000000000000002"
)

func newSeedCmd() *cobra.Command {
	var dbURL string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed demo data (users, guild, channels, messages)",
		Long: "Seed the database with demo data: 2 friends, a guild, two channels, a DM and messages.\n\n" +
			"Environment:\n  DATABASE_URL  PostgreSQL connection string (required)",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := requireValue(dbURL, "DATABASE_URL")
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cmd, url)
		},
	}
	cmd.Flags().StringVar(&dbURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	return cmd
}

func runSeed(ctx context.Context, cmd *cobra.Command, dbURL string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "connecting to database...")
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	sf, err := snowflake.NewGenerator(0, 0)
	if err != nil {
		return fmt.Errorf("snowflake init failed: %w", err)
	}
	guildID := sf.NextID()
	generalID := sf.NextID()
	randomID := sf.NextID()
	roleID := sf.NextID()
	dmID := snowflake.DMChannelID(aliceID, bobID)
	now := time.Now().UTC()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	steps := []struct {
		what string
		sql  string
		args []any
	}{
		{"users", `INSERT INTO users (user_id, nickname) VALUES ($1,'Alice'), ($2,'Bob') ON CONFLICT (user_id) DO NOTHING`,
			[]any{aliceID, bobID}},
		{"friendship", `INSERT INTO friends (user_id, friend_id, accepted) VALUES ($1,$2,true), ($2,$1,true) ON CONFLICT DO NOTHING`,
			[]any{aliceID, bobID}},
		{"guild", `INSERT INTO guilds (guild_id, owner_id, name) VALUES ($1,$2,'Demo Server')`,
			[]any{guildID, aliceID}},
		{"channels", `INSERT INTO channels (channel_id, guild_id, name) VALUES ($1,$3,'general'), ($2,$3,'random')`,
			[]any{generalID, randomID, guildID}},
		{"dm channel", `INSERT INTO channels (channel_id, is_dm) VALUES ($1,true) ON CONFLICT (channel_id) DO NOTHING`,
			[]any{dmID}},
		{"default role", `INSERT INTO roles (role_id, guild_id, name, permissions, is_default) VALUES ($1,$2,'@everyone',$3,true)`,
			[]any{roleID, guildID, int64(permissions.DefaultEveryonePerms)}},
		{"members", `INSERT INTO guild_members (guild_id, user_id) VALUES ($1,$2), ($1,$3)`,
			[]any{guildID, aliceID, bobID}},
		{"messages", `INSERT INTO messages (message_id, user_id, channel_id, content, date) VALUES
			($1,$5,$8,'Welcome to the Demo Server!',$9),
			($2,$6,$8,'Hey Alice, glad to be here! https://example.com',$9),
			($3,$5,$10,'This is the random channel.',$9),
			($4,$5,$7,'Hi Bob, this one is just between us.',$9)`,
			[]any{sf.NextID(), sf.NextID(), sf.NextID(), sf.NextID(), aliceID, bobID, dmID, generalID, now, randomID}},
	}
	for _, s := range steps {
		fmt.Fprintf(out, "creating %s...\n", s.what)
		if _, err := tx.Exec(ctx, s.sql, s.args...); err != nil {
			return fmt.Errorf("creating %s: %w", s.what, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "seed complete:")
	fmt.Fprintf(out, "  users:    alice (%s), bob (%s)\n", aliceID, bobID)
	fmt.Fprintf(out, "  guild:    Demo Server %s (owner: alice)\n", guildID)
	fmt.Fprintf(out, "  channels: #general %s, #random %s, dm %s\n", generalID, randomID, dmID)
	fmt.Fprintln(out, "  messages: 4 messages across the guild and the DM")
	return nil
}
