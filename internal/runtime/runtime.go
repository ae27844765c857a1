package runtime

// Emitted code calls into a small runtime library through one global table
// (see config.Options.RuntimeLibrary). The names below are the whole contract
// and are versioned: renaming or changing the calling convention of any of
// them requires bumping Version.

const Version = 1

const (
	// is(value, descriptor) -> boolean. The descriptor is a Luau type name
	// ("number", "string", ...) or the name of a generated class.
	Is = "is"

	// try(tryFn, catchFn?, finallyFn?) -> (exitKind, packed). Every closure
	// returns an exit kind (nil or one of the sentinels below) and a packed
	// argument table.
	Try         = "try"
	TryReturn   = "TRY_RETURN"
	TryBreak    = "TRY_BREAK"
	TryContinue = "TRY_CONTINUE"

	// iterator(body) -> enumerable, where body is function(state, onBreak?)
	Iterator = "iterator"

	// yield(state, value) -> boolean. Returns true when the consumer stopped
	// early and the body should unwind.
	Yield = "yield"

	// close(state) marks the enumerator as finished
	Close = "close"

	// slice(table, start, length) -> table, with a 1-based start
	Slice = "slice"

	// iterate(enumerable) -> iterator function for a generic "for"
	Iterate = "iterate"

	// await(value) -> value
	Await = "await"
)

var Contract = []string{
	Is,
	Try,
	TryReturn,
	TryBreak,
	TryContinue,
	Iterator,
	Yield,
	Close,
	Slice,
	Iterate,
	Await,
}

// A reference implementation of the contract. The CLI can write it out next
// to the generated code, and it documents the exact behavior lowering relies
// on.
const Code = `--!nocheck
local CS = {}

CS.TRY_RETURN = 1
CS.TRY_BREAK = 2
CS.TRY_CONTINUE = 3

local primitives = {
	number = true,
	string = true,
	boolean = true,
	table = true,
	["function"] = true,
	thread = true,
}

function CS.is(value, descriptor)
	if value == nil then
		return false
	end
	if primitives[descriptor] then
		return type(value) == descriptor
	end
	local class = getmetatable(value)
	while class ~= nil do
		if class.__className == descriptor then
			return true
		end
		local interfaces = rawget(class, "__interfaces")
		if interfaces ~= nil and table.find(interfaces, descriptor) ~= nil then
			return true
		end
		class = getmetatable(class)
	end
	return false
end

local function asException(err)
	if type(err) == "table" then
		return err
	end
	return { Message = tostring(err) }
end

function CS.try(try, catch, finally)
	local ok, exitKind, packed = pcall(try)
	local pending = nil
	if not ok then
		pending = asException(exitKind)
		exitKind, packed = nil, nil
		if catch ~= nil then
			ok, exitKind, packed = pcall(catch, pending)
			if ok then
				pending = nil
			else
				pending = asException(exitKind)
				exitKind, packed = nil, nil
			end
		end
	end
	if finally ~= nil then
		local finallyKind, finallyPacked = finally()
		if finallyKind ~= nil then
			return finallyKind, finallyPacked
		end
	end
	if pending ~= nil then
		error(pending, 0)
	end
	return exitKind, packed or {}
end

local Enumerable = {}
Enumerable.__index = Enumerable

function CS.iterator(body)
	return setmetatable({ body = body }, Enumerable)
end

function CS.yield(state, value)
	coroutine.yield(value)
	return state.closed
end

function CS.close(state)
	state.closed = true
end

function CS.slice(t, start, length)
	if length <= 0 then
		return {}
	end
	return table.move(t, start, start + length - 1, 1, {})
end

function CS.iterate(enumerable)
	if getmetatable(enumerable) ~= Enumerable then
		local index = 0
		return function()
			index += 1
			local value = enumerable[index]
			if value == nil then
				return nil
			end
			return index, value
		end
	end

	local state = { closed = false }
	local onBreak = function()
		state.closed = true
	end
	local co = coroutine.create(function()
		enumerable.body(state, onBreak)
	end)
	local index = 0
	return function()
		if state.closed or coroutine.status(co) == "dead" then
			return nil
		end
		local ok, value = coroutine.resume(co)
		if not ok then
			error(value, 0)
		end
		if state.closed or coroutine.status(co) == "dead" then
			return nil
		end
		index += 1
		return index, value
	end
end

function CS.await(value)
	if type(value) == "table" and type(value.Wait) == "function" then
		return value:Wait()
	end
	return value
end

return CS
`
