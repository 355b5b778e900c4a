// Package output provides styled terminal output for the heron CLI.
//
// # Usage
//
//	output.Success("Scan complete")
//	output.Info("Next steps:")
//	output.Step("heron trend --project api")
//	output.Error("Something went wrong")
//
// # Verbose Mode
//
//	output.SetVerbose(true)
//	output.Verbose("Parsed 142 files")
//
// # Styling
//
// Styles come from lipgloss. When stdout is not a terminal (piped into a
// file or another tool) messages are written without ANSI styling:
//
//   - Success: ✅ green bold
//   - Warn: ⚠️ yellow bold
//   - Error: ❌ red bold
//   - Info: ℹ️ cyan
//   - Step: indented gray
//   - Verbose: 🔍 gray (when enabled)
package output
