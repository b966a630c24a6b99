//go:build darwin

package privilege

// promptCommand runs the script through osascript's "with administrator privileges".
func promptCommand(script string) (string, []string) {
	src := "do shell script \"/bin/sh \" & quoted form of " + appleScriptString(script) + " with administrator privileges"
	return "osascript", []string{"-e", src}
}
