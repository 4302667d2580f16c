package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"imchat/internal/client"
)

func newClient(c *cli.Context) *client.Client {
	return client.New(c.String("base-url"), c.String("token"))
}

func requireToken(c *cli.Context) error {
	if c.String("token") == "" {
		return cli.Exit("a token is required: pass --token or set IM_TOKEN", 2)
	}
	return nil
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "register an account with the skill key",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
			&cli.StringFlag{Name: "nickname", Usage: "defaults to the username"},
			&cli.StringFlag{Name: "skill-key", Required: true, EnvVars: []string{"IM_SKILL_KEY"}},
		},
		Action: func(c *cli.Context) error {
			nickname := c.String("nickname")
			if nickname == "" {
				nickname = c.String("username")
			}
			id, err := newClient(c).Register(c.Context, client.RegisterRequest{
				Username: c.String("username"),
				Password: c.String("password"),
				Nickname: nickname,
				SkillKey: c.String("skill-key"),
			})
			if err != nil {
				return err
			}
			return printJSON(c, map[string]int64{"user_id": id})
		},
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "log in and print the token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
		},
		Action: func(c *cli.Context) error {
			res, err := newClient(c).Login(c.Context, c.String("username"), c.String("password"))
			if err != nil {
				return err
			}
			return printJSON(c, res)
		},
	}
}

func joinCommand() *cli.Command {
	return &cli.Command{
		Name:   "join",
		Usage:  "join the public room",
		Before: requireToken,
		Action: func(c *cli.Context) error {
			room, err := newClient(c).JoinPublicRoom(c.Context)
			if err != nil {
				return err
			}
			return printJSON(c, room)
		},
	}
}

func sendCommand() *cli.Command {
	return &cli.Command{
		Name:   "send",
		Usage:  "send a message",
		Before: requireToken,
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "room-id", Required: true},
			&cli.StringFlag{Name: "content", Required: true},
			&cli.StringFlag{Name: "client-msg-id", Usage: "idempotency key; generated when empty"},
		},
		Action: func(c *cli.Context) error {
			clientMsgID := c.String("client-msg-id")
			if clientMsgID == "" {
				clientMsgID = "cli_" + uuid.NewString()
			}
			res, err := newClient(c).Send(c.Context, client.SendRequest{
				ConversationID: c.Int64("room-id"),
				Content:        c.String("content"),
				ClientMsgID:    clientMsgID,
			})
			if err != nil {
				return err
			}
			return printJSON(c, res)
		},
	}
}

func pullCommand() *cli.Command {
	return &cli.Command{
		Name:   "pull",
		Usage:  "fetch messages after an id",
		Before: requireToken,
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "room-id", Required: true},
			&cli.Int64Flag{Name: "after-id"},
			&cli.IntFlag{Name: "limit", Value: 50},
		},
		Action: func(c *cli.Context) error {
			page, err := newClient(c).Pull(c.Context, c.Int64("room-id"), c.Int64("after-id"), c.Int("limit"))
			if err != nil {
				return err
			}
			return printJSON(c, page)
		},
	}
}

func readCommand() *cli.Command {
	return &cli.Command{
		Name:   "read",
		Usage:  "mark messages up to an id as read",
		Before: requireToken,
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "room-id", Required: true},
			&cli.Int64Flag{Name: "message-id", Required: true},
		},
		Action: func(c *cli.Context) error {
			if err := newClient(c).MarkRead(c.Context, c.Int64("room-id"), c.Int64("message-id")); err != nil {
				return err
			}
			return printJSON(c, map[string]bool{"updated": true})
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "list conversations with unread counts",
		Before: requireToken,
		Action: func(c *cli.Context) error {
			convs, err := newClient(c).Conversations(c.Context)
			if err != nil {
				return err
			}
			return printJSON(c, convs)
		},
	}
}

func tailCommand() *cli.Command {
	return &cli.Command{
		Name:   "tail",
		Usage:  "poll the room and print new messages",
		Before: requireToken,
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "room-id", Required: true},
			&cli.Int64Flag{Name: "after-id"},
			&cli.DurationFlag{Name: "interval", Value: time.Second},
			&cli.StringFlag{Name: "state-file", Usage: "JSON file persisting after_id between runs"},
		},
		Action: func(c *cli.Context) error {
			state := newStateFile(c.String("state-file"))
			after := c.Int64("after-id")
			if saved, err := state.Load(); err != nil {
				return err
			} else if saved > after {
				after = saved
			}

			err := newClient(c).Tail(c.Context, client.TailOptions{
				ConversationID: c.Int64("room-id"),
				AfterID:        after,
				Interval:       c.Duration("interval"),
				OnMessage: func(m client.Message) {
					fmt.Fprintln(c.App.Writer, formatMessage(m))
				},
				OnAdvance: func(id int64) {
					if err := state.Save(id); err != nil {
						fmt.Fprintf(c.App.ErrWriter, "save state: %v\n", err)
					}
				},
				OnError: func(err error) {
					fmt.Fprintf(c.App.ErrWriter, "error=%v\n", err)
				},
			})
			if c.Context.Err() != nil {
				return nil
			}
			return err
		},
	}
}

func formatMessage(m client.Message) string {
	sender := m.SenderNickname
	if sender == "" {
		sender = m.SenderUsername
	}
	if sender == "" {
		sender = fmt.Sprintf("uid:%d", m.SenderID)
	}
	return fmt.Sprintf("[%s] #%d %s: %s", m.CreatedAt.Format(time.RFC3339), m.ID, sender, m.Content)
}
