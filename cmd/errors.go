package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
)

// isLLMError reports whether err came from the reasoning engine connection.
func isLLMError(err error) bool {
	if err == nil {
		return false
	}
	if errors.HasCode(err, errors.CodeMissingCredential) || errors.HasCode(err, errors.CodeNetworkError) {
		return true
	}
	return strings.Contains(err.Error(), "failed to get chat completion")
}

// printLLMHelp prints troubleshooting guidance for reasoning engine failures.
func printLLMHelp(w io.Writer) {
	fmt.Fprintln(w, "\nTroubleshooting reasoning engine connection issues:")
	fmt.Fprintln(w, "   - The API key for the selected provider may be missing or expired")
	fmt.Fprintln(w, "   - SENTINEL_PROVIDER selects gemini (GEMINI_API_KEY), anthropic (ANTHROPIC_API_KEY)")
	fmt.Fprintln(w, "     or azure-openai (AZURE_OPENAI_KEY, AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_DEPLOYMENT_ID)")
	fmt.Fprintln(w, "   - Network connectivity or provider overload; retries are bounded by SENTINEL_RETRY_ATTEMPTS")
	fmt.Fprintln(w, "\nRun 'sentinel test' to check the connection.")
}
