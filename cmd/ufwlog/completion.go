package main

import (
	"fmt"
	"io"
)

const bashCompletion = `# bash completion for ufwlog
_ufwlog() {
    local cur prev
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    if [ "$COMP_CWORD" -eq 1 ]; then
        COMPREPLY=( $(compgen -W "export completion version help" -- "$cur") )
        return
    fi

    case "$prev" in
        -l|--log|-o|--output|-c|--config|--state)
            COMPREPLY=( $(compgen -f -- "$cur") )
            return ;;
        -f|--format)
            COMPREPLY=( $(compgen -W "csv jsonl" -- "$cur") )
            return ;;
        --on-error)
            COMPREPLY=( $(compgen -W "fail-fast skip" -- "$cur") )
            return ;;
        --log-level)
            COMPREPLY=( $(compgen -W "debug info warn error quiet" -- "$cur") )
            return ;;
    esac

    case "${COMP_WORDS[1]}" in
        export)
            COMPREPLY=( $(compgen -W "--log --output --format --overwrite --on-error --state --config --log-level --log-pretty" -- "$cur") ) ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- "$cur") ) ;;
    esac
}
complete -F _ufwlog ufwlog
`

const zshCompletion = `#compdef ufwlog

_ufwlog() {
    local -a commands
    commands=(
        'export:Convert a UFW log into a table file'
        'completion:Print a shell completion script'
        'version:Show version'
        'help:Show help'
    )

    if (( CURRENT == 2 )); then
        _describe 'command' commands
        return
    fi

    case "$words[2]" in
        export)
            _arguments \
                '(-l --log)'{-l,--log}'[UFW log input]:file:_files' \
                '(-o --output)'{-o,--output}'[output file]:file:_files' \
                '(-f --format)'{-f,--format}'[output format]:format:(csv jsonl)' \
                '--overwrite[replace an existing output file]' \
                '--on-error[bad line policy]:policy:(fail-fast skip)' \
                '--state[resume state file]:file:_files' \
                '(-c --config)'{-c,--config}'[configuration file]:file:_files' \
                '--log-level[log level]:level:(debug info warn error quiet)' \
                '--log-pretty[human-readable logs]'
            ;;
        completion)
            _values 'shell' bash zsh fish
            ;;
    esac
}

_ufwlog "$@"
`

const fishCompletion = `# fish completion for ufwlog
complete -c ufwlog -f
complete -c ufwlog -n '__fish_use_subcommand' -a export -d 'Convert a UFW log into a table file'
complete -c ufwlog -n '__fish_use_subcommand' -a completion -d 'Print a shell completion script'
complete -c ufwlog -n '__fish_use_subcommand' -a version -d 'Show version'
complete -c ufwlog -n '__fish_use_subcommand' -a help -d 'Show help'
complete -c ufwlog -n '__fish_seen_subcommand_from export' -s l -l log -r -F -d 'UFW log input'
complete -c ufwlog -n '__fish_seen_subcommand_from export' -s o -l output -r -F -d 'Output file'
complete -c ufwlog -n '__fish_seen_subcommand_from export' -s f -l format -x -a 'csv jsonl' -d 'Output format'
complete -c ufwlog -n '__fish_seen_subcommand_from export' -l overwrite -d 'Replace an existing output file'
complete -c ufwlog -n '__fish_seen_subcommand_from export' -l on-error -x -a 'fail-fast skip' -d 'Bad line policy'
complete -c ufwlog -n '__fish_seen_subcommand_from export' -l state -r -F -d 'Resume state file'
complete -c ufwlog -n '__fish_seen_subcommand_from export' -s c -l config -r -F -d 'Configuration file'
complete -c ufwlog -n '__fish_seen_subcommand_from export' -l log-level -x -a 'debug info warn error quiet' -d 'Log level'
complete -c ufwlog -n '__fish_seen_subcommand_from export' -l log-pretty -d 'Human-readable logs'
complete -c ufwlog -n '__fish_seen_subcommand_from completion' -x -a 'bash zsh fish'
`

var completions = map[string]string{
	"bash": bashCompletion,
	"zsh":  zshCompletion,
	"fish": fishCompletion,
}

func runCompletion(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: ufwlog completion <bash|zsh|fish>")
		return 2
	}
	script, ok := completions[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "error: unsupported shell %q (use bash, zsh or fish)\n", args[0])
		return 2
	}
	fmt.Fprint(stdout, script)
	return 0
}
