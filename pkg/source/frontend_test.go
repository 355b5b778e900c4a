package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoFrontEnd_ClassesAndConstructorDependencies(t *testing.T) {
	sf := build(t, "service.go", `package service

import (
	"fmt"
	str "strings"
)

type Service struct {
	repo  *Repository
	log   Logger
	count int
}

func NewService(repo *Repository, log Logger, count int) *Service {
	return &Service{repo: repo, log: log, count: count}
}

func (s *Service) Run() error {
	fmt.Println(str.ToUpper("run"))
	return nil
}
`)
	require.Empty(t, sf.Errors)

	svc := class(t, sf, "Service")
	assert.Equal(t, []string{"repo", "log", "count"}, svc.Fields)
	assert.Equal(t, []string{"Run"}, svc.Methods)
	assert.Equal(t, []string{"Repository", "Logger"}, svc.Dependencies)

	run := function(t, sf, "Run")
	assert.Equal(t, "Service", run.Class)
	assert.Equal(t, "Service.Run", run.QualifiedName())
	assert.Equal(t, "error", run.ReturnType)
	assert.Equal(t, []string{"fmt.Println", "str.ToUpper"}, run.Calls)

	require.Len(t, sf.Imports, 2)
	assert.Equal(t, "fmt", sf.Imports[0].Module)
	assert.Equal(t, "strings", sf.Imports[1].Module)
	assert.Equal(t, "str", sf.Imports[1].Alias)
}

func TestPythonFrontEnd_Classes(t *testing.T) {
	sf := build(t, "orders.py", `class OrderService(BaseService):
    retries = 3

    def __init__(self, repo: OrderRepository, limit: int, clock: "Clock"):
        self.repo = repo
        self.limit = limit

    async def place(self, order):
        return await self.repo.save(order)
`)
	require.Empty(t, sf.Errors)

	svc := class(t, sf, "OrderService")
	assert.Equal(t, []string{"BaseService"}, svc.Bases)
	assert.Equal(t, []string{"__init__", "place"}, svc.Methods)
	assert.Equal(t, []string{"retries", "repo", "limit"}, svc.Fields)
	assert.Equal(t, []string{"OrderRepository", "Clock"}, svc.Dependencies)

	place := function(t, sf, "place")
	assert.True(t, place.Async)
	assert.Equal(t, "OrderService", place.Class)
	assert.Equal(t, []string{"order"}, place.Params)

	ctor := function(t, sf, "__init__")
	assert.Equal(t, []string{"repo", "limit", "clock"}, ctor.Params)
}

func TestPythonFrontEnd_Imports(t *testing.T) {
	sf := build(t, "app/views.py", `import os.path as osp
from ..core import models, utils as u
from . import helpers
`)
	require.Len(t, sf.Imports, 3)

	assert.Equal(t, ImportRecord{Module: "os.path", Alias: "osp"}, sf.Imports[0])

	assert.Equal(t, "..core", sf.Imports[1].Module)
	assert.True(t, sf.Imports[1].Relative)
	assert.Equal(t, []string{"models", "utils"}, sf.Imports[1].Names)
	assert.Equal(t, "u", sf.Imports[1].Alias)

	assert.Equal(t, ".", sf.Imports[2].Module)
	assert.True(t, sf.Imports[2].Relative)
	assert.Equal(t, []string{"helpers"}, sf.Imports[2].Names)
}

func TestTypeScriptFrontEnd_Classes(t *testing.T) {
	sf := build(t, "users.ts", `export class UserController extends BaseController implements Handler {
  private cache: Map<string, User> = new Map();

  constructor(private readonly users: UserRepository, logger: Logger, retries: number) {
    super();
    this.logger = logger;
  }

  async find(id: string): Promise<User | undefined> {
    return this.cache.get(id) ?? this.users.byId(id);
  }
}
`)
	require.Empty(t, sf.Errors)

	ctrl := class(t, sf, "UserController")
	assert.Equal(t, []string{"BaseController", "Handler"}, ctrl.Bases)
	assert.Equal(t, []string{"constructor", "find"}, ctrl.Methods)
	assert.Equal(t, []string{"cache", "users", "logger"}, ctrl.Fields)
	assert.Equal(t, []string{"UserRepository", "Logger"}, ctrl.Dependencies)

	find := function(t, sf, "find")
	assert.True(t, find.Async)
	assert.Equal(t, "UserController", find.Class)
	assert.Equal(t, 2, find.Complexity)
}

func TestJavaScriptFrontEnd_Imports(t *testing.T) {
	sf := build(t, "web/index.js", `import fs from "fs";
import { a, b as c } from "./util";
const x = require("../lib/x");
`)
	require.Len(t, sf.Imports, 3)

	assert.Equal(t, "fs", sf.Imports[0].Module)
	assert.Equal(t, []string{"fs"}, sf.Imports[0].Names)
	assert.False(t, sf.Imports[0].Relative)

	assert.Equal(t, "./util", sf.Imports[1].Module)
	assert.True(t, sf.Imports[1].Relative)
	assert.Equal(t, []string{"a", "b"}, sf.Imports[1].Names)
	assert.Equal(t, "c", sf.Imports[1].Alias)

	assert.Equal(t, "../lib/x", sf.Imports[2].Module)
	assert.True(t, sf.Imports[2].Relative)
}

func TestScanner_JavaClass(t *testing.T) {
	sf := build(t, "OrderService.java", `package com.acme;

import java.util.List;
import static org.junit.Assert.*;

public class OrderService extends BaseService implements Runnable, Closeable {
    private final OrderRepository repo;
    private int retries = 3;

    public OrderService(OrderRepository repo, Clock clock, int retries) {
        this.repo = repo;
    }

    @Override
    public void run() {
        if (repo != null) {
            repo.flush();
        }
    }
}
`)
	assert.Equal(t, FidelityApproximate, sf.Fidelity)

	svc := class(t, sf, "OrderService")
	assert.Equal(t, []string{"BaseService", "Runnable", "Closeable"}, svc.Bases)
	assert.Equal(t, []string{"OrderService", "run"}, svc.Methods)
	assert.Equal(t, []string{"repo", "retries"}, svc.Fields)
	assert.Equal(t, []string{"OrderRepository", "Clock"}, svc.Dependencies)

	run := function(t, sf, "run")
	assert.Equal(t, "void", run.ReturnType)
	assert.Equal(t, 2, run.Complexity)
	assert.Equal(t, []string{"repo.flush"}, run.Calls)

	require.Len(t, sf.Imports, 2)
	assert.Equal(t, "java.util.List", sf.Imports[0].Module)
	assert.Equal(t, "org.junit.Assert", sf.Imports[1].Module)
}

func TestScanner_RustImplMergesIntoStruct(t *testing.T) {
	sf := build(t, "store.rs", `use crate::store::{Store, Snapshot};
mod config;

#[derive(Debug)]
pub struct Store {
    pub path: String,
    conn: Connection,
}

impl Store {
    pub fn new(path: String, conn: Connection) -> Self {
        Store { path, conn }
    }
}

impl Drop for Store {
    fn drop(&mut self) {}
}
`)
	store := class(t, sf, "Store")
	assert.Equal(t, []string{"path", "conn"}, store.Fields)
	assert.Equal(t, []string{"new", "drop"}, store.Methods)
	assert.Equal(t, []string{"Drop"}, store.Bases)
	assert.Equal(t, []string{"Connection"}, store.Dependencies)

	assert.Equal(t, "Self", function(t, sf, "new").ReturnType)
	assert.Empty(t, function(t, sf, "drop").Params)

	require.Len(t, sf.Imports, 2)
	assert.Equal(t, "crate::store", sf.Imports[0].Module)
	assert.Equal(t, []string{"Store", "Snapshot"}, sf.Imports[0].Names)
	assert.Equal(t, "config", sf.Imports[1].Module)
	assert.True(t, sf.Imports[1].Relative)
}

func TestScanner_KotlinPrimaryConstructor(t *testing.T) {
	sf := build(t, "Repo.kt", `class Repo(private val db: Database, name: String) : Base() {
    val cache = mutableMapOf<String, Int>()

    fun load(id: String): Int {
        return cache[id] ?: 0
    }
}
`)
	repo := class(t, sf, "Repo")
	assert.Equal(t, []string{"Base"}, repo.Bases)
	assert.Equal(t, []string{"db", "cache"}, repo.Fields)
	assert.Equal(t, []string{"Database"}, repo.Dependencies)

	load := function(t, sf, "load")
	assert.Equal(t, "Repo", load.Class)
	assert.Equal(t, "Int", load.ReturnType)
	assert.Equal(t, 2, load.Complexity)
}

func TestScanner_CIncludes(t *testing.T) {
	sf := build(t, "main.c", `#include <stdio.h>
#include "util/strings.h"

/* int commented(void) { return 0; } */
int main(void) {
    const char *s = "if (x) { return; }";
    return s[0] == 'x' ? 1 : 0;
}
`)
	require.Len(t, sf.Imports, 2)
	assert.Equal(t, ImportRecord{Module: "stdio"}, sf.Imports[0])
	assert.Equal(t, ImportRecord{Module: "util/strings", Relative: true}, sf.Imports[1])

	require.Len(t, sf.Functions, 1)
	fn := sf.Functions[0]
	assert.Equal(t, "main", fn.Name)
	assert.Equal(t, 2, fn.Complexity)
	assert.Empty(t, fn.Params)
}

func TestStructureHash_IgnoresNamesAndLiterals(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		src   string
		left  string
		right string
		other string
	}{
		{
			name: "go",
			path: "sum.go",
			src: `package sum

func sumA(xs []int) int {
	total := 0
	for _, x := range xs {
		if x > 10 {
			total += x
		}
	}
	return total
}

func sumB(values []int) int {
	acc := 0
	for _, v := range values {
		if v > 99 {
			acc += v
		}
	}
	return acc
}

func other(values []int) int {
	return len(values)
}
`,
			left: "sumA", right: "sumB", other: "other",
		},
		{
			name: "python",
			path: "sum.py",
			src: `def sum_a(xs):
    total = 0
    for x in xs:
        if x > 10:
            total += x
    return total

def sum_b(values):
    acc = 0
    for v in values:
        if v > 99:
            acc += v
    return acc

def other(values):
    return len(values)
`,
			left: "sum_a", right: "sum_b", other: "other",
		},
		{
			name: "java",
			path: "Sum.java",
			src: `class Sum {
    int sumA(int[] xs) {
        int total = 0;
        for (int x : xs) {
            if (x > 10) {
                total += x;
            }
        }
        return total;
    }

    int sumB(int[] values) {
        int acc = 0;
        for (int v : values) {
            if (v > 99) {
                acc += v;
            }
        }
        return acc;
    }

    int other(int[] values) {
        return values.length;
    }
}
`,
			left: "sumA", right: "sumB", other: "other",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sf := build(t, tt.path, tt.src)
			left := function(t, sf, tt.left)
			right := function(t, sf, tt.right)
			other := function(t, sf, tt.other)

			require.NotEmpty(t, left.StructureHash)
			assert.Equal(t, left.StructureHash, right.StructureHash)
			assert.NotEqual(t, left.StructureHash, other.StructureHash)
		})
	}
}

func TestShapeHasher_DepthBound(t *testing.T) {
	h := newShapeHasher()
	assert.Empty(t, h.sum())
	assert.True(t, h.add(MaxHashDepth, "node"))
	assert.False(t, h.add(MaxHashDepth+1, "node"))

	deep := newShapeHasher()
	deep.add(MaxHashDepth, "node")
	deep.add(MaxHashDepth+1, "ignored")
	assert.Equal(t, h.sum(), deep.sum())
}

func TestConstructWeights(t *testing.T) {
	assert.Equal(t, 1, ConstructBranch.Weight(0))
	assert.Equal(t, 0, ConstructTry.Weight(0))
	assert.Equal(t, 2, ConstructBoolean.Weight(3))
	assert.Equal(t, 0, ConstructBoolean.Weight(1))
	assert.True(t, ConstructLoop.Nests())
	assert.False(t, ConstructElif.Nests())
	assert.False(t, ConstructHandler.Nests())
}

func TestScanner_FunctionsNamedNew(t *testing.T) {
	tests := []struct {
		path string
		src  string
	}{
		{"factory.rs", "fn new(size: usize) -> Pool {\n    Pool { size }\n}\n"},
		{"factory.kt", "fun new(size: Int): Pool {\n    return Pool(size)\n}\n"},
		{"factory.swift", "func new(size: Int) -> Pool {\n    return Pool(size: size)\n}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			sf := build(t, tt.path, tt.src)
			fn := function(t, sf, "new")
			assert.Equal(t, 1, fn.StartLine)
			assert.Equal(t, []string{"size"}, fn.Params)
		})
	}
}
