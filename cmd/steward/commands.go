package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	jwttoken "steward/internal/jwt_token"
	"steward/internal/platform/config"
	"steward/internal/platform/migrations"
	"steward/internal/platform/postgres"
	"steward/internal/study/models"
	"steward/internal/study/risk"
	trainingmodels "steward/internal/training/models"
	id "steward/pkg/domain"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database migrations (uses DATABASE_URL)",
	}
	run := func(name string, fn func(cmd *cobra.Command) error) *cobra.Command {
		return &cobra.Command{
			Use:  name,
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error { return fn(cmd) },
		}
	}
	withDB := func(apply func(cmd *cobra.Command, url string) error) func(cmd *cobra.Command) error {
		return func(cmd *cobra.Command) error {
			url := config.FromEnv().DatabaseURL
			if url == "" {
				return codeError(2, "DATABASE_URL is not set")
			}
			return apply(cmd, url)
		}
	}
	cmd.AddCommand(
		run("up", withDB(func(cmd *cobra.Command, url string) error {
			db, err := postgres.Open(cmd.Context(), url)
			if err != nil {
				return err
			}
			defer db.Close()
			return migrations.Up(cmd.Context(), db)
		})),
		run("down", withDB(func(cmd *cobra.Command, url string) error {
			db, err := postgres.Open(cmd.Context(), url)
			if err != nil {
				return err
			}
			defer db.Close()
			return migrations.Down(cmd.Context(), db)
		})),
		run("status", withDB(func(cmd *cobra.Command, url string) error {
			db, err := postgres.Open(cmd.Context(), url)
			if err != nil {
				return err
			}
			defer db.Close()
			return migrations.Status(cmd.Context(), db)
		})),
	)
	return cmd
}

func newPolicyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy [file]",
		Short: "Validate a policy file and print the effective policy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			p, err := config.LoadPolicy(path)
			if err != nil {
				return codeError(3, "invalid policy: %s", err)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(p); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newRiskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "risk <declarations.json|->",
		Short: "Score a set of study declarations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return codeError(2, "open declarations: %s", err)
				}
				defer f.Close()
				in = f
			}
			var d models.Declarations
			dec := json.NewDecoder(in)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&d); err != nil {
				return codeError(2, "decode declarations: %s", err)
			}
			return writeJSON(cmd.OutOrStdout(), risk.Score(d))
		},
	}
}

type trainingFlags struct {
	completed  string
	now        string
	policyFile string
}

func newTrainingCmd() *cobra.Command {
	var flags trainingFlags
	cmd := &cobra.Command{
		Use:   "training",
		Short: "Evaluate training validity for a completion date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTraining(cmd.OutOrStdout(), flags)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.completed, "completed", "", "Completion time (RFC 3339); empty means no record")
	f.StringVar(&flags.now, "now", "", "Evaluation time (RFC 3339), defaults to the current time")
	f.StringVar(&flags.policyFile, "policy", "", "Policy file overriding the defaults")
	return cmd
}

func runTraining(w io.Writer, flags trainingFlags) error {
	p, err := config.LoadPolicy(flags.policyFile)
	if err != nil {
		return codeError(3, "invalid policy: %s", err)
	}
	now := time.Now().UTC()
	if flags.now != "" {
		if now, err = time.Parse(time.RFC3339, flags.now); err != nil {
			return codeError(2, "--now: %s", err)
		}
	}
	var completedAt *time.Time
	if flags.completed != "" {
		t, err := time.Parse(time.RFC3339, flags.completed)
		if err != nil {
			return codeError(2, "--completed: %s", err)
		}
		completedAt = &t
	}
	t := p.Training
	v, err := trainingmodels.Evaluate(completedAt, t.ValidityPeriodDays, now,
		trainingmodels.ThresholdsFromDays(t.LowDays, t.MediumDays, t.HighDays))
	if err != nil {
		return codeError(3, "%s", err)
	}
	return writeJSON(w, map[string]any{
		"state":      v.State,
		"is_valid":   v.IsValid,
		"urgency":    v.Urgency,
		"expires_at": v.ExpiresAt,
	})
}

type tokenFlags struct {
	userID   string
	username string
	roles    []string
	ttl      time.Duration
}

func newTokenCmd() *cobra.Command {
	var flags tokenFlags
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token signed with JWT_SIGNING_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToken(cmd.OutOrStdout(), config.FromEnv(), flags)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.userID, "user-id", "", "User id (random when empty)")
	f.StringVar(&flags.username, "username", "", "Username")
	f.StringSliceVar(&flags.roles, "role", []string{string(id.RoleBase)}, "Role (may be repeated)")
	f.DurationVar(&flags.ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func runToken(w io.Writer, cfg config.Server, flags tokenFlags) error {
	userID := id.UserID(uuid.New())
	if flags.userID != "" {
		parsed, err := id.ParseUserID(flags.userID)
		if err != nil {
			return codeError(2, "--user-id: %s", err)
		}
		userID = parsed
	}
	roles, err := id.ParseRoles(flags.roles)
	if err != nil {
		return codeError(2, "--role: %s", err)
	}
	svc := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	token, err := svc.GenerateAccessToken(id.Actor{UserID: userID, Username: flags.username, Roles: roles}, flags.ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
