// Command todo is a terminal client for the todolist server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"todolist/client"
	"todolist/models"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	server string
	token  string
	out    io.Writer
}

func (a *app) api() *client.API {
	return client.NewAPI(a.server, nil)
}

// view returns a View loaded with the current task list.
func (a *app) view(ctx context.Context) (*client.View, error) {
	if a.token == "" {
		return nil, errors.New("no session: run `todo login` and pass --token or set TODO_TOKEN")
	}
	v := client.NewView(a.api(), a.token)
	if err := v.Refresh(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:          "todo",
		Short:        "Manage your todolist from the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  export TODO_TOKEN=$(todo login me@example.com --password secret1)
  todo add Buy milk
  todo list --filter active
  todo toggle <id>
`),
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.server, "server", envOr("TODO_SERVER", "http://localhost:8080"), "server URL (TODO_SERVER)")
	root.PersistentFlags().StringVar(&a.token, "token", os.Getenv("TODO_TOKEN"), "session token (TODO_TOKEN)")

	root.AddCommand(
		registerCmd(a),
		loginCmd(a),
		logoutCmd(a),
		listCmd(a),
		addCmd(a),
		toggleCmd(a),
		editCmd(a),
		rmCmd(a),
		clearCompletedCmd(a),
	)
	return root
}

func registerCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register <username> <email>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.api().Register(cmd.Context(), args[0], args[1], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "registered %s <%s> (password strength: %s)\n", reg.Username, reg.Email, reg.PasswordStrength)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", os.Getenv("TODO_PASSWORD"), "password (TODO_PASSWORD)")
	return cmd
}

func loginCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and print the session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.api().Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", os.Getenv("TODO_PASSWORD"), "password (TODO_PASSWORD)")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				return a.api().LogoutAll(cmd.Context(), a.token)
			}
			return a.api().Logout(cmd.Context(), a.token)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "end every session of the account")
	return cmd
}

func listCmd(a *app) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := client.ParseFilter(filter)
			if err != nil {
				return err
			}
			v, err := a.view(cmd.Context())
			if err != nil {
				return err
			}
			v.SetFilter(f)
			renderTasks(a.out, v.Visible(), v.Counts())
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "all", "all, active or completed")
	return cmd
}

func addCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.token == "" {
				return models.ErrUnauthorized
			}
			task, err := client.NewView(a.api(), a.token).Add(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, task.ID)
			return nil
		},
	}
}

func toggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a task done or not done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.view(cmd.Context())
			if err != nil {
				return err
			}
			task, err := v.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderTasks(a.out, []models.Task{task}, v.Counts())
			return nil
		},
	}
}

func editCmd(a *app) *cobra.Command {
	var title, due, priority string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change title, due date or priority",
		Long:  "Flags that are not given keep their current value. --due none clears the due date.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.view(cmd.Context())
			if err != nil {
				return err
			}
			var current models.Task
			for _, t := range v.Tasks() {
				if t.ID == args[0] {
					current = t
				}
			}
			if current.ID == "" {
				return models.ErrNotFound
			}

			if cmd.Flags().Changed("title") {
				current.Title = title
			}
			if cmd.Flags().Changed("priority") {
				if current.Priority, err = models.ParsePriority(priority); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("due") {
				current.DueDate = nil
				if due != "" && due != "none" {
					d, err := models.ParseDate(due)
					if err != nil {
						return err
					}
					current.DueDate = &d
				}
			}

			task, err := v.Edit(cmd.Context(), current.ID, current.Title, current.DueDate, current.Priority)
			if err != nil {
				return err
			}
			renderTasks(a.out, []models.Task{task}, v.Counts())
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&due, "due", "", "due date YYYY-MM-DD, or none")
	cmd.Flags().StringVar(&priority, "priority", "", "High, Medium or Low")
	return cmd
}

func rmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.token == "" {
				return models.ErrUnauthorized
			}
			return client.NewView(a.api(), a.token).Delete(cmd.Context(), args[0])
		},
	}
}

func clearCompletedCmd(a *app) *cobra.Command {
	var serverSide bool
	cmd := &cobra.Command{
		Use:   "clear-completed",
		Short: "Delete every completed task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			var removed int
			var err error
			if serverSide {
				removed, err = a.api().ClearCompleted(ctx, a.token)
			} else {
				var v *client.View
				if v, err = a.view(ctx); err == nil {
					removed, err = v.ClearCompleted(ctx)
				}
			}
			fmt.Fprintf(a.out, "removed %d\n", removed)
			return err
		},
	}
	cmd.Flags().BoolVar(&serverSide, "server-side", false, "let the server sweep in a single request")
	return cmd
}
