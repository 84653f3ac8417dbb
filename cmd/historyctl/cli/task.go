package cli

import (
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/versionhistory-go/example/tasks"
)

func newTaskCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, change, delete and show tasks",
	}

	cmd.AddCommand(newTaskCreateCommand(opts))
	cmd.AddCommand(newTaskUpdateCommand(opts))
	cmd.AddCommand(newTaskDeleteCommand(opts))
	cmd.AddCommand(newTaskShowCommand(opts))

	return cmd
}

func newTaskCreateCommand(opts *rootOptions) *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task and record its first version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withBackend(cmd.Context(), func(b *backend) error {
				task, err := b.taskHistory.Save(cmd.Context(), tasks.NewTask(title, description, opts.deps.Now()))
				if err != nil {
					return err
				}

				return newPrinter(cmd.OutOrStdout()).Task(task)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "task title (required)")
	cmd.Flags().StringVar(&description, "description", "", "task description")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newTaskUpdateCommand(opts *rootOptions) *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Change a task; a new version is recorded if a field changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBackend(cmd.Context(), func(b *backend) error {
				task, err := b.taskStore.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				changed := *task
				if cmd.Flags().Changed("title") {
					changed.Title = title
				}

				if cmd.Flags().Changed("description") {
					changed.Description = description
				}

				if changed.Title != task.Title || changed.Description != task.Description {
					changed.Touch(opts.deps.Now())
				}

				saved, err := b.taskHistory.Save(cmd.Context(), &changed)
				if err != nil {
					return err
				}

				return newPrinter(cmd.OutOrStdout()).Task(saved)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new task title")
	cmd.Flags().StringVar(&description, "description", "", "new task description")

	return cmd
}

func newTaskDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task and close its open version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBackend(cmd.Context(), func(b *backend) error {
				task, err := b.taskStore.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				if err = b.taskHistory.Delete(cmd.Context(), task); err != nil {
					return err
				}

				newPrinter(cmd.OutOrStdout()).Printf("deleted task %s\n", task.ID)

				return nil
			})
		},
	}
}

func newTaskShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show the current state of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBackend(cmd.Context(), func(b *backend) error {
				task, err := b.taskStore.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				return newPrinter(cmd.OutOrStdout()).Task(task)
			})
		},
	}
}
