package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bagdasarian/uniportal-groups/internal/app"
	"github.com/bagdasarian/uniportal-groups/internal/config"
	"github.com/bagdasarian/uniportal-groups/internal/domain"
	"github.com/bagdasarian/uniportal-groups/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	format string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "groupsyncctl",
		Short:        "Управление составом групп портала",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.format, "format", "text", "формат вывода: text или json")

	cmd.AddCommand(newShowCommand(opts))
	cmd.AddCommand(newReconcileCommand(opts))
	return cmd
}

func newShowCommand(opts *rootOptions) *cobra.Command {
	var groupID int64

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Показать группу и ее участников",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				group, err := a.Groups.GetGroup(ctx, groupID)
				if err != nil {
					return err
				}
				return printGroup(cmd.OutOrStdout(), opts.format, group)
			})
		},
	}
	cmd.Flags().Int64Var(&groupID, "group", 0, "id группы")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

func newReconcileCommand(opts *rootOptions) *cobra.Command {
	var (
		groupID  int64
		identity string
		file     string
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Привести состав группы к списку из файла",
		RunE: func(cmd *cobra.Command, args []string) error {
			desired, err := readDesiredFile(file)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				result, err := a.Groups.ReconcileMembers(ctx, identity, groupID, desired)
				if err != nil {
					return err
				}
				if err := printResult(cmd.OutOrStdout(), opts.format, result); err != nil {
					return err
				}
				return resultError(result)
			})
		},
	}
	cmd.Flags().Int64Var(&groupID, "group", 0, "id группы")
	cmd.Flags().StringVar(&identity, "as", "", "идентификатор создателя группы")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML или JSON со списком участников")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("as")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// resultError превращает неудачный запуск в ошибку команды
func resultError(result *domain.ReconcileResult) error {
	switch {
	case result.Converged():
		return nil
	case result.ErrorKind == domain.CodeTimeout:
		return domain.ErrTimeout
	default:
		return domain.ErrConvergenceFailure
	}
}

func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Load()

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", zap.Error(err))
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func readDesiredFile(path string) ([]domain.DesiredMember, error) {
	if path == "-" {
		return parseDesired(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseDesired(f)
}

func printGroup(w io.Writer, format string, group *domain.Group) error {
	if format == "json" {
		return writeJSON(w, groupView(group))
	}
	fmt.Fprintf(w, "group %d %q (section %d, max %d)\n", group.ID, group.Name, group.SectionID, group.MaxMembers)
	for _, m := range group.Members {
		mark := "-"
		if m.IsCreator {
			mark = "*"
		}
		fmt.Fprintf(w, "  %s %d %s %s\n", mark, m.ID, m.DisplayName, m.ContactEmail)
	}
	return nil
}

func printResult(w io.Writer, format string, result *domain.ReconcileResult) error {
	if format == "json" {
		return writeJSON(w, resultView(result))
	}
	fmt.Fprintf(w, "run %s: %s, %d of %d members saved, attempts %d",
		result.RunID, result.Status, result.Saved, result.Total, result.Attempts)
	if result.Escalated {
		fmt.Fprint(w, ", escalated")
	}
	fmt.Fprintln(w)
	if result.ErrorKind != "" {
		fmt.Fprintf(w, "error: %s\n", result.ErrorKind)
	}
	for _, m := range result.Mismatches {
		fmt.Fprintf(w, "  %s %d %q: %s\n", m.Op, m.MemberID, m.Name, m.Reason)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
