package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// Confirm asks a yes/no question and reads the answer from reader. It
// defaults to no and honors context cancellation while waiting for input.
func Confirm(ctx context.Context, reader io.Reader, writer io.Writer, question string) (bool, error) {
	fmt.Fprint(writer, FormatPrompt(question+" [y/N]"))

	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		value, err := bufio.NewReader(reader).ReadString('\n')
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, ErrInputCancelled
	case res := <-resultCh:
		if res.err != nil && res.err != io.EOF {
			return false, res.err
		}
		answer := strings.ToLower(strings.TrimSpace(res.value))
		return answer == "y" || answer == "yes" || answer == "s" || answer == "sim", nil
	}
}
