package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cippe-prep/internal/catalog"
	"cippe-prep/internal/exam"
	"cippe-prep/internal/session"
)

// Run drives one controller from a line-based terminal loop: a home menu
// plus a nested loop per mode. Reading in and writing out keeps sessions
// scriptable in tests.
func Run(ctx context.Context, in io.Reader, out io.Writer, ctrl *session.Controller) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "CIPP/E exam preparation")
	printStats(out, ctrl.View())
	printHelp(out)

	for {
		fmt.Fprint(out, "\n> ")
		line, err := readLine(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		switch strings.ToLower(args[0]) {
		case "help":
			printHelp(out)
		case "exit":
			return nil
		case "stats":
			printStats(out, ctrl.View())
		case "note":
			handleNote(ctx, out, ctrl, args)
		case "practice":
			if err := runStudy(ctx, reader, out, ctrl, ctrl.StartPractice); err != nil {
				return err
			}
		case "review":
			if err := runStudy(ctx, reader, out, ctrl, ctrl.StartReview); err != nil {
				return err
			}
		case "exam":
			if err := ctrl.StartExam(); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			if err := runExam(ctx, reader, out, ctrl); err != nil {
				return err
			}
		default:
			fmt.Fprintln(out, "unknown command. type 'help' for usage.")
		}
	}
}

// runStudy is the shared practice/review loop. It owns the mode: every exit
// path goes back through GoHome.
func runStudy(ctx context.Context, reader *bufio.Reader, out io.Writer, ctrl *session.Controller, start func() error) error {
	if err := start(); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return nil
	}

	view := ctrl.View()
	if view.Count == 0 {
		if view.NothingToReview {
			fmt.Fprintln(out, "Nothing to review: every question has been answered correctly at least once.")
		} else {
			fmt.Fprintln(out, "Nothing left to practice right now.")
		}
		ctrl.GoHome()
		return nil
	}

	for {
		view = ctrl.View()
		printStudyQuestion(out, view)

	prompts:
		for {
			fmt.Fprint(out, "answer A-D, n(ext), p(rev), note <text>, home: ")
			line, err := readLine(reader)
			if err != nil {
				ctrl.GoHome()
				if errors.Is(err, io.EOF) {
					fmt.Fprintln(out)
					return nil
				}
				return err
			}

			args := strings.Fields(line)
			if len(args) == 0 {
				continue
			}
			switch strings.ToLower(args[0]) {
			case "home":
				ctrl.GoHome()
				return nil
			case "n", "next":
				_ = ctrl.Next()
				break prompts
			case "p", "prev":
				_ = ctrl.Prev()
				break prompts
			case "note":
				text := strings.TrimSpace(strings.TrimPrefix(line, args[0]))
				current := ctrl.View()
				if current.Question == nil {
					continue
				}
				if err := ctrl.SetNote(ctx, current.Question.ID, text); err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
					continue
				}
				fmt.Fprintln(out, "Note saved.")
			default:
				option, ok := parseOption(args[0])
				if !ok {
					fmt.Fprintf(out, "Invalid input. Enter a letter A-%c, n, p, note <text> or home.\n", lastOptionLetter())
					continue
				}
				if ctrl.View().AnswerRevealed {
					fmt.Fprintln(out, "Already answered; n moves on.")
					continue
				}
				if err := ctrl.SelectAnswer(option); err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
					continue
				}
				if err := ctrl.Confirm(ctx); err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
					continue
				}
				printVerdict(out, ctrl.View())
			}
		}
	}
}

// runExam owns exam mode. Answers get no feedback; a timer expiry observed
// between prompts surfaces as the result screen.
func runExam(ctx context.Context, reader *bufio.Reader, out io.Writer, ctrl *session.Controller) error {
	view := ctrl.View()
	if view.Exam != nil {
		fmt.Fprintf(out, "\nExam started: %d questions, %s on the clock. Grading happens on submit.\n",
			view.Count, formatClock(view.Exam.RemainingSeconds))
	}

	for {
		view = ctrl.View()
		if view.Exam == nil {
			ctrl.GoHome()
			return nil
		}
		if view.Exam.Submitted {
			fmt.Fprintln(out, "\nTime is up. The exam was submitted automatically.")
			printResult(out, view.Exam.Result)
			ctrl.GoHome()
			return nil
		}

		printExamQuestion(out, view)
		fmt.Fprint(out, "answer A-D, n, p, goto N, grid, submit, home: ")
		line, err := readLine(reader)
		if err != nil {
			ctrl.GoHome()
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch strings.ToLower(args[0]) {
		case "home":
			abandon, perr := promptYesNo(reader, out, "Abandon the exam? Nothing will be recorded. (yes/no): ")
			if perr != nil {
				ctrl.GoHome()
				if errors.Is(perr, io.EOF) {
					fmt.Fprintln(out)
					return nil
				}
				return perr
			}
			if abandon {
				ctrl.GoHome()
				return nil
			}
		case "submit":
			prompt := "Submit the exam? (yes/no): "
			if unanswered := view.Count - view.Exam.AnsweredCount; unanswered > 0 {
				prompt = fmt.Sprintf("%d unanswered questions will count as wrong. Submit? (yes/no): ", unanswered)
			}
			confirmed, perr := promptYesNo(reader, out, prompt)
			if perr != nil {
				ctrl.GoHome()
				if errors.Is(perr, io.EOF) {
					fmt.Fprintln(out)
					return nil
				}
				return perr
			}
			if !confirmed {
				continue
			}
			result, serr := ctrl.SubmitExam(ctx)
			if serr != nil {
				// An expiry that won the race is reported on the next loop.
				fmt.Fprintf(out, "error: %v\n", serr)
				continue
			}
			printResult(out, &result)
			ctrl.GoHome()
			return nil
		case "grid":
			printGrid(out, view.Exam)
		case "goto":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: goto <question number>")
				continue
			}
			n, convErr := strconv.Atoi(args[1])
			if convErr != nil {
				fmt.Fprintln(out, "question number must be a number")
				continue
			}
			_ = ctrl.JumpTo(n - 1)
		case "n", "next":
			_ = ctrl.Next()
		case "p", "prev":
			_ = ctrl.Prev()
		default:
			option, ok := parseOption(args[0])
			if !ok {
				fmt.Fprintf(out, "Invalid input. Enter a letter A-%c, n, p, goto N, grid, submit or home.\n", lastOptionLetter())
				continue
			}
			if err := ctrl.AnswerCurrent(option); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			_ = ctrl.Next()
		}
	}
}

func handleNote(ctx context.Context, out io.Writer, ctrl *session.Controller, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(out, "usage: note <question_id> [text]")
		return
	}
	id, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintln(out, "question id must be a number")
		return
	}

	if len(args) == 2 {
		text := ctrl.Note(id)
		if text == "" {
			fmt.Fprintf(out, "No note for question %d.\n", id)
			return
		}
		fmt.Fprintf(out, "Note for question %d: %s\n", id, text)
		return
	}

	if err := ctrl.SetNote(ctx, id, strings.Join(args[2:], " ")); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(out, "Note saved.")
}

func printStudyQuestion(out io.Writer, view session.View) {
	q := view.Question
	if q == nil {
		return
	}

	fmt.Fprintf(out, "\nQuestion %d/%d (id %d)\n", view.Index+1, view.Count, q.ID)
	if q.Scenario != "" {
		fmt.Fprintf(out, "\n%s\n", q.Scenario)
	}
	fmt.Fprintf(out, "\n%s\n\n", q.Question)
	for i, option := range q.Options {
		fmt.Fprintf(out, "%c. %s\n", optionLetter(i), option)
	}
	if view.Note != "" {
		fmt.Fprintf(out, "\nNote: %s\n", view.Note)
	}
	if view.AnswerRevealed {
		printVerdict(out, view)
	}
	fmt.Fprintln(out)
}

func printExamQuestion(out io.Writer, view session.View) {
	fmt.Fprintf(out, "\nQuestion %d/%d | %s remaining | %d/%d answered\n",
		view.Index+1, view.Count,
		formatClock(view.Exam.RemainingSeconds),
		view.Exam.AnsweredCount, view.Count)

	q := view.Question
	if q == nil {
		return
	}
	if q.Scenario != "" {
		fmt.Fprintf(out, "\n%s\n", q.Scenario)
	}
	fmt.Fprintf(out, "\n%s\n\n", q.Question)
	for i, option := range q.Options {
		fmt.Fprintf(out, "%c. %s\n", optionLetter(i), option)
	}
	if view.SelectedAnswer >= 0 {
		fmt.Fprintf(out, "\nCurrent answer: %c\n", optionLetter(view.SelectedAnswer))
	}
	fmt.Fprintln(out)
}

// printVerdict shows the grade and the study material for a revealed
// question: explanation, the distractor explanation when the answer was
// wrong, and the legal reference.
func printVerdict(out io.Writer, view session.View) {
	q := view.Question
	if q == nil {
		return
	}

	fmt.Fprintln(out)
	if view.SelectedAnswer == q.CorrectAnswer {
		fmt.Fprintln(out, "Correct!")
	} else {
		fmt.Fprintf(out, "Wrong. Correct answer: %c. %s\n",
			optionLetter(q.CorrectAnswer), optionText(q, q.CorrectAnswer))
	}
	if q.Explanation != "" {
		fmt.Fprintf(out, "\n%s\n", q.Explanation)
	}
	if view.SelectedAnswer != q.CorrectAnswer &&
		view.SelectedAnswer >= 0 && view.SelectedAnswer < len(q.OptionExplanations) {
		if text := q.OptionExplanations[view.SelectedAnswer]; text != "" {
			fmt.Fprintf(out, "\nWhy %c is wrong: %s\n", optionLetter(view.SelectedAnswer), text)
		}
	}
	if q.LegalReference != "" {
		fmt.Fprintf(out, "\nReference: %s\n", q.LegalReference)
	}
	if q.Analysis != "" {
		fmt.Fprintf(out, "\n%s\n", q.Analysis)
	}
}

// printGrid renders the navigation grid ten cells per row, "12:B" when
// answered and "12:-" when blank.
func printGrid(out io.Writer, ev *session.ExamView) {
	for i, cell := range ev.Grid {
		if i%10 == 0 {
			fmt.Fprintln(out)
		}
		mark := "-"
		if cell.Answered {
			mark = string(optionLetter(cell.Chosen))
		}
		fmt.Fprintf(out, "%3d:%s ", i+1, mark)
	}
	fmt.Fprintln(out)
}

func printResult(out io.Writer, result *exam.Result) {
	if result == nil {
		return
	}
	fmt.Fprintf(out, "\nScored %d/%d correct (%.1f%%).\n",
		result.ScoredCorrect, result.ScoredTotal, result.RawPercentage)
	verdict := "FAIL"
	if result.Passed {
		verdict = "PASS"
	}
	fmt.Fprintf(out, "Scaled score: %d. %s (pass mark %d on the %d-%d scale).\n",
		result.ScaledScore, verdict, exam.PassMark, exam.ScaleFloor, exam.ScaleCeiling)
}

func printStats(out io.Writer, view session.View) {
	stats := view.Stats
	fmt.Fprintf(out, "\nQuestions: %d  Attempted: %d (%.1f%%)  Ever correct: %d\n",
		stats.TotalQuestions, stats.AttemptedCount, stats.CompletionPercent, stats.EverCorrectCount)
	fmt.Fprintf(out, "Total attempts: %d  Accuracy: %.1f%%\n", stats.TotalAttempts, stats.AccuracyPercent)
	if !view.CanStartExam {
		fmt.Fprintf(out, "Exam mode needs a larger question bank (%d loaded).\n", stats.TotalQuestions)
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "\nCommands:")
	fmt.Fprintln(out, "  practice          step through open questions with feedback")
	fmt.Fprintln(out, "  review            revisit questions never answered correctly")
	fmt.Fprintln(out, "  exam              timed exam simulation, graded on submit")
	fmt.Fprintln(out, "  stats             progress summary")
	fmt.Fprintln(out, "  note <id> [text]  show or save a note for a question")
	fmt.Fprintln(out, "  help, exit")
}

// readLine trims one input line. A final unterminated line still counts, so
// scripted input does not need a trailing newline.
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptYesNo(reader *bufio.Reader, out io.Writer, prompt string) (bool, error) {
	for {
		fmt.Fprint(out, prompt)
		line, err := readLine(reader)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(out, "Please answer yes or no.")
		}
	}
}

// formatClock renders remaining seconds as h:mm:ss.
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

func parseOption(input string) (int, bool) {
	input = strings.ToUpper(strings.TrimSpace(input))
	if len(input) != 1 {
		return -1, false
	}
	letter := input[0]
	if letter < 'A' || letter > lastOptionLetter() {
		return -1, false
	}
	return int(letter - 'A'), true
}

func optionLetter(index int) byte { return byte('A' + index) }

func lastOptionLetter() byte { return byte('A' + catalog.OptionCount - 1) }

func optionText(q *session.QuestionView, index int) string {
	if index < 0 || index >= len(q.Options) {
		return ""
	}
	return q.Options[index]
}
