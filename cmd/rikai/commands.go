package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yungbote/rikai-backend/internal/app"
	"github.com/yungbote/rikai-backend/internal/domain"
	"github.com/yungbote/rikai-backend/internal/modules/learning/progress"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), app.Options{RequireProvider: true}, func(a *app.App) error {
				return a.Run(cmd.Context())
			})
		},
	}
}

func newCreateCommand() *cobra.Command {
	var goal, level string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate a curriculum for a goal and store it",
		Example: `  rikai create --goal "3ヶ月でフランス語の日常会話" --level novice
  rikai create --goal "Goで並行処理" --level 基礎は知っている`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), app.Options{RequireProvider: true}, func(a *app.App) error {
				c, err := a.Services.Learning.CreateCurriculum(cmd.Context(), goal, level)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), c, func(w io.Writer) { writeCurriculum(w, c) })
			})
		},
	}
	cmd.Flags().StringVarP(&goal, "goal", "g", "", "Learning goal")
	cmd.Flags().StringVarP(&level, "level", "l", string(domain.LevelNovice), "Experience level: code or Japanese label")
	_ = cmd.MarkFlagRequired("goal")
	return cmd
}

func newListCommand() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored curricula",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), app.Options{}, func(a *app.App) error {
				list := a.Services.Learning.Search(cmd.Context(), query)
				return render(cmd.OutOrStdout(), list, func(w io.Writer) { writeList(w, list) })
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter by title or goal")
	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <curriculum_id>",
		Short: "Show a curriculum with its modules and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), app.Options{}, func(a *app.App) error {
				c, err := a.Services.Learning.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), c, func(w io.Writer) { writeCurriculum(w, c) })
			})
		},
	}
}

func render(w io.Writer, v any, table func(io.Writer)) error {
	switch outputFormat {
	case "json":
		return outputJSON(w, v)
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}

func writeList(w io.Writer, list []domain.Curriculum) {
	fmt.Fprintln(w, "ID\tTITLE\tTASKS\tPROGRESS\tHOURS")
	for _, c := range list {
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d%%\t%.1f\n",
			c.ID, c.Title, c.CompletedCount(), c.TaskCount(), progress.Percent(c), c.TotalEstimatedHours)
	}
}

func writeCurriculum(w io.Writer, c domain.Curriculum) {
	fmt.Fprintf(w, "%s\t(%s)\n", c.Title, c.ID)
	fmt.Fprintf(w, "goal:\t%s\n", c.Goal)
	fmt.Fprintf(w, "level:\t%s\n", c.Level)
	fmt.Fprintf(w, "progress:\t%d%%\t%.1fh\n", progress.Percent(c), c.TotalEstimatedHours)
	for _, m := range c.Modules {
		fmt.Fprintf(w, "\n%s\t%s\n", m.ID, m.Title)
		for _, t := range m.Tasks {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%.1fh\n", t.ID, statusMark(t.Status), t.Title, t.EstimatedHours)
		}
	}
}

func statusMark(s domain.TaskStatus) string {
	switch s {
	case domain.TaskStatusCompleted:
		return "[x]"
	case domain.TaskStatusInProgress:
		return "[>]"
	default:
		return "[ ]"
	}
}
