package cs_reader

import (
	"sync"

	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/sexpr"
)

// The slice of the source language's standard library that lowering knows
// about. Members listed here resolve like any other member and are then
// either expanded as macros or emitted as ordinary calls.
const builtinDecls = `
(class Object
  (method ToString () string)
  (method Equals ((other object)) bool)
  (method GetHashCode () int))

(class Array :params (T)
  (property Length int))

(class String
  (property Length int)
  (method Substring ((start int)) string)
  (method Substring ((start int) (length int)) string)
  (method IndexOf ((value string)) int)
  (method Contains ((value string)) bool)
  (method StartsWith ((value string)) bool)
  (method EndsWith ((value string)) bool)
  (method ToUpper () string)
  (method ToLower () string)
  (method Trim () string)
  (method Split ((separator string)) string[])
  (method Replace ((old string) (new string)) string)
  (method ToString () string)
  (method IsNullOrEmpty ((value string)) bool :static)
  (method Join ((separator string) (values (IEnumerable string))) string :static))

(class Math
  (field PI double :static)
  (method Abs ((x int)) int :static)
  (method Abs ((x double)) double :static)
  (method Floor ((x double)) double :static)
  (method Ceiling ((x double)) double :static)
  (method Round ((x double)) double :static)
  (method Sqrt ((x double)) double :static)
  (method Pow ((x double) (y double)) double :static)
  (method Sign ((x double)) int :static)
  (method Max ((a int) (b int)) int :static)
  (method Max ((a double) (b double)) double :static)
  (method Min ((a int) (b int)) int :static)
  (method Min ((a double) (b double)) double :static)
  (method Clamp ((value int) (min int) (max int)) int :static)
  (method Clamp ((value double) (min double) (max double)) double :static))

(class Console
  (method WriteLine () void :static)
  (method WriteLine ((value object)) void :static)
  (method Write ((value object)) void :static))

(class Exception
  (ctor ())
  (ctor ((message string)))
  (property Message string))

(class InvalidOperationException (extends Exception)
  (ctor ())
  (ctor ((message string))))

(class ArgumentException (extends Exception)
  (ctor ())
  (ctor ((message string))))

(interface IDisposable
  (method Dispose () void))

(interface IEnumerable :params (T))

(interface IEnumerator :params (T))

(class Task :params (T))

(class List :params (T) (implements (IEnumerable T))
  (ctor ())
  (ctor ((capacity int)))
  (property Count int)
  (method Add ((item T)) void)
  (method Insert ((index int) (item T)) void)
  (method Remove ((item T)) bool)
  (method RemoveAt ((index int)) void)
  (method Clear () void)
  (method Contains ((item T)) bool)
  (method IndexOf ((item T)) int)
  (method Find ((match (Predicate T))) T)
  (method FindLast ((match (Predicate T))) T)
  (method FindIndex ((match (Predicate T))) int)
  (method Exists ((match (Predicate T))) bool)
  (method ConvertAll ((converter (Func T U))) (List U) :params (U))
  (method ForEach ((action (Action T))) void)
  (method AddRange ((items (IEnumerable T))) void)
  (method Sort () void)
  (method ToArray () T[]))

(class Dictionary :params (K V) (implements (IEnumerable (KeyValuePair K V)))
  (ctor ())
  (property Count int)
  (property Keys (List K))
  (property Values (List V))
  (method Add ((key K) (value V)) void)
  (method Remove ((key K)) bool)
  (method ContainsKey ((key K)) bool)
  (method TryGetValue ((key K) (value V :out)) bool)
  (method Clear () void))

(struct KeyValuePair :params (K V)
  (property Key K)
  (property Value V))

(class HashSet :params (T) (implements (IEnumerable T))
  (ctor ())
  (property Count int)
  (method Add ((item T)) bool)
  (method Remove ((item T)) bool)
  (method Contains ((item T)) bool)
  (method Clear () void))

(class Enumerable
  (method Where ((predicate (Func T bool))) (IEnumerable T) :extension :params (T))
  (method Select ((selector (Func T U))) (IEnumerable U) :extension :params (T U))
  (method Any () bool :extension :params (T))
  (method Any ((predicate (Func T bool))) bool :extension :params (T))
  (method All ((predicate (Func T bool))) bool :extension :params (T))
  (method Count () int :extension :params (T))
  (method Count ((predicate (Func T bool))) int :extension :params (T))
  (method First () T :extension :params (T))
  (method First ((predicate (Func T bool))) T :extension :params (T))
  (method FirstOrDefault () T :extension :params (T))
  (method FirstOrDefault ((predicate (Func T bool))) T :extension :params (T))
  (method Sum () T :extension :params (T))
  (method Sum ((selector (Func T U))) U :extension :params (T U))
  (method ToList () (List T) :extension :params (T))
  (method ToArray () T[] :extension :params (T)))
`

var builtinOnce sync.Once
var builtins map[string]*cs_ast.Symbol

func builtinTypes() map[string]*cs_ast.Symbol {
	builtinOnce.Do(func() {
		log := logger.NewDeferLog()
		source := logger.Source{PrettyPath: "<builtins>", Contents: builtinDecls}
		forms, ok := sexpr.Parse(log, source)
		if ok {
			r := newReader(log, source, nil)
			r.isBuiltin = true
			func() {
				defer func() {
					if _, isReaderPanic := recover().(readerPanic); isReaderPanic {
						ok = false
					}
				}()
				r.readUnit(forms)
			}()
			builtins = r.types
		}
		if !ok {
			text := ""
			for _, msg := range log.Done() {
				text += msg.String(logger.OutputOptions{}, logger.TerminalInfo{})
			}
			panic("Internal error: invalid library declarations\n" + text)
		}
	})
	return builtins
}
