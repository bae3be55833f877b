package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/llehouerou/lessongate/internal/course"
	"github.com/llehouerou/lessongate/internal/state"
)

var courseCmd = &cobra.Command{
	Use:   "course [course-id]",
	Short: "Show lesson unlock state for a course",
	Long:  "Without an id, lists the configured courses.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			listCourses(out)
			return nil
		}

		c, err := course.FromConfig(cfg, args[0])
		if err != nil {
			return err
		}
		mgr, err := state.Open(cfg.State.Path)
		if err != nil {
			return fmt.Errorf("open resume cache: %w", err)
		}
		defer mgr.Close()

		return printCourse(out, c, mgr)
	},
}

func init() {
	rootCmd.AddCommand(courseCmd)
}

func listCourses(out io.Writer) {
	ids := make([]string, 0, len(cfg.Courses))
	for id := range cfg.Courses {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	if len(ids) == 0 {
		fmt.Fprintln(out, "no courses configured")
		return
	}
	for _, id := range ids {
		cc := cfg.Courses[id]
		fmt.Fprintf(out, "%s\t%d lessons\t%s\n", id, len(cc.Lessons), cc.Title)
	}
}

func printCourse(out io.Writer, c *course.Course, cache state.Interface) error {
	if err := restoreCourse(c, cache); err != nil {
		return err
	}
	list, err := cache.ListProgress(c.ID)
	if err != nil {
		return err
	}
	byLesson := make(map[string]*state.LessonProgress, len(list))
	for i := range list {
		byLesson[list[i].LessonID] = &list[i]
	}

	fmt.Fprintf(out, "%s\n%s\n", c.Title, strings.Repeat("=", len(c.Title)))
	for i, l := range c.Lessons() {
		unlocked := c.Unlocked(i)
		marker := " "
		switch {
		case c.IsComplete(l.ID):
			marker = "x"
		case !unlocked:
			marker = "-"
		}
		title := l.Title
		if title == "" {
			title = l.ID
		}
		fmt.Fprintf(out, "[%s] %d. %-24s %s (needs %s)\n", marker, i+1, title,
			lessonStatus(unlocked, byLesson[l.ID]), formatPercent(c.Threshold(i)))
	}
	return nil
}
