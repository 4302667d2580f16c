package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"imchat/internal/client"
)

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "register fake users and fill the public room with chatter",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "users", Value: 5},
			&cli.IntFlag{Name: "messages", Value: 20, Usage: "messages per user"},
			&cli.StringFlag{Name: "skill-key", Required: true, EnvVars: []string{"IM_SKILL_KEY"}},
			&cli.Int64Flag{Name: "seed", Usage: "random seed; 0 picks one from the clock"},
		},
		Action: func(c *cli.Context) error {
			seed := c.Int64("seed")
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			gofakeit.Seed(seed)

			var sent int
			for i := 0; i < c.Int("users"); i++ {
				username := fakeUsername(i)
				password := gofakeit.Password(true, true, true, false, false, 12)

				cl := client.New(c.String("base-url"), "")
				if _, err := cl.Register(c.Context, client.RegisterRequest{
					Username: username,
					Password: password,
					Nickname: gofakeit.Name(),
					SkillKey: c.String("skill-key"),
				}); err != nil {
					return fmt.Errorf("register %s: %w", username, err)
				}
				if _, err := cl.Login(c.Context, username, password); err != nil {
					return fmt.Errorf("login %s: %w", username, err)
				}
				room, err := cl.JoinPublicRoom(c.Context)
				if err != nil {
					return fmt.Errorf("join %s: %w", username, err)
				}

				for j := 0; j < c.Int("messages"); j++ {
					if _, err := cl.Send(c.Context, client.SendRequest{
						ConversationID: room.RoomID,
						Content:        gofakeit.Sentence(gofakeit.Number(3, 15)),
						ClientMsgID:    "seed_" + uuid.NewString(),
					}); err != nil {
						return fmt.Errorf("send as %s: %w", username, err)
					}
					sent++
				}
				fmt.Fprintf(c.App.Writer, "user %s password %s\n", username, password)
			}
			fmt.Fprintf(c.App.Writer, "seeded %d users, %d messages (seed %d)\n", c.Int("users"), sent, seed)
			return nil
		},
	}
}

// fakeUsername returns a fake handle that satisfies the 3-50 byte rule.
func fakeUsername(i int) string {
	name := strings.ToLower(gofakeit.Username())
	name = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' {
			return r
		}
		return -1
	}, name)
	suffix := fmt.Sprintf("_%d_%s", i, gofakeit.LetterN(4))
	name = "u" + name
	if len(name)+len(suffix) > 50 {
		name = name[:50-len(suffix)]
	}
	return name + suffix
}
