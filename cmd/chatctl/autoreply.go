package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"imchat/internal/client"
)

const autoReplyQuoteRunes = 120

// autoReplier answers every message in the room that it did not send itself.
type autoReplier struct {
	api    *client.Client
	selfID int64
	roomID int64
	prefix string
	state  stateFile
	errOut io.Writer
}

// reply sends prefix plus the first runes of m's content. Own and blank
// messages are skipped.
func (r *autoReplier) reply(ctx context.Context, m client.Message) error {
	if m.SenderID == r.selfID {
		return nil
	}
	content := strings.TrimSpace(m.Content)
	if content == "" {
		return nil
	}
	if quoted := []rune(content); len(quoted) > autoReplyQuoteRunes {
		content = string(quoted[:autoReplyQuoteRunes])
	}
	_, err := r.api.Send(ctx, client.SendRequest{
		ConversationID: r.roomID,
		Content:        r.prefix + content,
		ClientMsgID:    "auto_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
	})
	return err
}

// runOnce drains everything after afterID, replies, and persists the new
// cursor. It returns the cursor.
func (r *autoReplier) runOnce(ctx context.Context, afterID int64) (int64, error) {
	for {
		page, err := r.api.Pull(ctx, r.roomID, afterID, 100)
		if err != nil {
			return afterID, err
		}
		for _, m := range page.List {
			if m.ID > afterID {
				afterID = m.ID
			}
			if err := r.reply(ctx, m); err != nil {
				fmt.Fprintf(r.errOut, "reply to #%d: %v\n", m.ID, err)
			}
		}
		if err := r.state.Save(afterID); err != nil {
			return afterID, err
		}
		if !page.HasMore {
			return afterID, nil
		}
	}
}

func (r *autoReplier) run(ctx context.Context, afterID int64, interval time.Duration) error {
	return r.api.Tail(ctx, client.TailOptions{
		ConversationID: r.roomID,
		AfterID:        afterID,
		Interval:       interval,
		OnMessage: func(m client.Message) {
			if err := r.reply(ctx, m); err != nil {
				fmt.Fprintf(r.errOut, "reply to #%d: %v\n", m.ID, err)
			}
		},
		OnAdvance: func(id int64) {
			if err := r.state.Save(id); err != nil {
				fmt.Fprintf(r.errOut, "save state: %v\n", err)
			}
		},
		OnError: func(err error) {
			fmt.Fprintf(r.errOut, "error=%v\n", err)
		},
	})
}

type botAccount struct {
	Username string
	Password string
	Nickname string
	SkillKey string
}

// newAutoReplier registers the account if needed, logs in and joins the room.
func newAutoReplier(ctx context.Context, api *client.Client, acct botAccount, prefix string, state stateFile, errOut io.Writer) (*autoReplier, error) {
	_, err := api.Register(ctx, client.RegisterRequest{
		Username: acct.Username,
		Password: acct.Password,
		Nickname: acct.Nickname,
		SkillKey: acct.SkillKey,
	})
	var apiErr *client.APIError
	if err != nil && !(errors.As(err, &apiErr) && apiErr.Status == 409) {
		return nil, fmt.Errorf("register: %w", err)
	}

	login, err := api.Login(ctx, acct.Username, acct.Password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	room, err := api.JoinPublicRoom(ctx)
	if err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}
	return &autoReplier{
		api:    api,
		selfID: login.User.ID,
		roomID: room.RoomID,
		prefix: prefix,
		state:  state,
		errOut: errOut,
	}, nil
}

func autoReplyCommand() *cli.Command {
	return &cli.Command{
		Name:  "autoreply",
		Usage: "reply to every new message in the public room",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Value: "skill_auto_reply", EnvVars: []string{"IM_USERNAME"}},
			&cli.StringFlag{Name: "password", Value: "12345678", EnvVars: []string{"IM_PASSWORD"}},
			&cli.StringFlag{Name: "nickname", Value: "Auto Reply", EnvVars: []string{"IM_NICKNAME"}},
			&cli.StringFlag{Name: "skill-key", Value: "im-skill-2026", EnvVars: []string{"IM_SKILL_KEY"}},
			&cli.StringFlag{Name: "prefix", Value: "Received: ", EnvVars: []string{"IM_REPLY_PREFIX"}},
			&cli.Float64Flag{Name: "interval", Value: 1, Usage: "poll interval in seconds", EnvVars: []string{"IM_POLL_INTERVAL"}},
			&cli.StringFlag{Name: "state-file", Usage: "JSON file persisting after_id between runs"},
			&cli.BoolFlag{Name: "once", Usage: "process pending messages and exit", EnvVars: []string{"IM_RUN_ONCE"}},
		},
		Action: func(c *cli.Context) error {
			state := newStateFile(c.String("state-file"))
			after, err := state.Load()
			if err != nil {
				return err
			}

			bot, err := newAutoReplier(c.Context, client.New(c.String("base-url"), ""), botAccount{
				Username: c.String("username"),
				Password: c.String("password"),
				Nickname: c.String("nickname"),
				SkillKey: c.String("skill-key"),
			}, c.String("prefix"), state, c.App.ErrWriter)
			if err != nil {
				return err
			}

			if c.Bool("once") {
				after, err = bot.runOnce(c.Context, after)
				if err != nil {
					return err
				}
				return printJSON(c, map[string]int64{"after_id": after})
			}

			interval := time.Duration(c.Float64("interval") * float64(time.Second))
			err = bot.run(c.Context, after, interval)
			if c.Context.Err() != nil {
				return nil
			}
			return err
		},
	}
}
