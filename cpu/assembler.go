// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// argCount is the count of arguments each mnemonic takes.
var argCount = map[Mnemonic]int{
	SND: 1,
	SET: 2,
	ADD: 2,
	MUL: 2,
	MOD: 2,
	RCV: 1,
	JGZ: 2,
}

// ParseInstruction parses a single line of Duet source.
func ParseInstruction(line string) (inst Instruction, err error) {
	words := slices.DeleteFunc(strings.Split(strings.TrimSpace(line), " "), func(a string) bool { return len(a) == 0 })

	return parseWords(words)
}

// parseWords decodes an instruction from its words.
func parseWords(words []string) (inst Instruction, err error) {
	if len(words) == 0 {
		err = ErrOpcodeMissing
		return
	}

	op, ok := mnemonicMap[words[0]]
	if !ok {
		err = ErrOpcodeInvalid
		return
	}

	args := words[1:]
	if len(args) != argCount[op] {
		err = ErrArgumentCount
		return
	}

	var reg Register
	var a, b Value

	switch op {
	case SND:
		a, err = ParseValue(args[0])
		if err != nil {
			return
		}
		inst = MakeSnd(a)
	case SET, ADD, MUL, MOD:
		reg, err = ParseRegister(args[0])
		if err != nil {
			return
		}
		a, err = ParseValue(args[1])
		if err != nil {
			return
		}
		inst = Instruction{Op: op, Register: reg, A: a}
	case RCV:
		reg, err = ParseRegister(args[0])
		if err != nil {
			return
		}
		inst = MakeRcv(reg)
	case JGZ:
		a, err = ParseValue(args[0])
		if err != nil {
			return
		}
		b, err = ParseValue(args[1])
		if err != nil {
			return
		}
		inst = MakeJgz(a, b)
	}

	return
}

// Assembler parses Duet source text into a Program.
//
// In the default strict mode every non-blank line must be exactly one
// instruction. With Extended set, the assembler also accepts ';' comments,
// '.equ NAME VALUE' equates, and '$(expr)' compile-time expressions.
type Assembler struct {
	Verbose  bool // If set, verbosely logs the assembler actions.
	Extended bool // If set, enables comments, equates and expressions.

	predefine map[string]string
	Equate    map[string]string // Map of equates.
}

// Predefine defines an equate available to every parse.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

var exprRe = regexp.MustCompile(`\$\([^\$]*\)`)

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{Name: "asm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		imm, _err := ParseValue(str)
		if _err != nil || imm.IsRegister() {
			// Ignore non-integer equates. They may be registers.
			continue
		}
		pred[key] = starlark.MakeInt64(imm.Immediate)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// parseExtended applies comments, equates and expressions to a line,
// returning the words that remain.
func (asm *Assembler) parseExtended(line string) (words []string, err error) {
	line = strings.TrimSpace(strings.Split(line, ";")[0])

	line = exprRe.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words = slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })

	// .equ NAME VALUE
	if len(words) > 0 && words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	return
}

// Parse parses an input stream into a Program. Blank lines are skipped;
// the first malformed line fails the whole parse with an *ErrSyntax.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			prog = nil
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Equate = maps.Clone(asm.predefine)
	if asm.Equate == nil {
		asm.Equate = map[string]string{}
	}

	prog = &Program{}

	for scanner.Scan() {
		line = scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, line)
		}

		var words []string
		if asm.Extended {
			words, err = asm.parseExtended(line)
			if err != nil {
				return
			}
		} else {
			words = slices.DeleteFunc(strings.Split(strings.TrimSpace(line), " "), func(a string) bool { return len(a) == 0 })
		}

		if len(words) == 0 {
			continue
		}

		var inst Instruction
		inst, err = parseWords(words)
		if err != nil {
			return
		}

		prog.Instructions = append(prog.Instructions, inst)
		prog.LineNo = append(prog.LineNo, lineno)
	}

	err = scanner.Err()

	return
}
