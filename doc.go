// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fast_simulator_toolkit é um serviço de simuladores de dados com
// injeção de falhas configurável.
//
// Visão Geral:
// Cada simulador devolve um conjunto fixo de parâmetros. Um cenário de falha
// aplicado ao simulador sobrescreve parâmetros e, opcionalmente, passa cada
// um por uma transformação temporal, ruído e limites, produzindo dados que
// degradam de forma realista.
//
// Sub-Pacotes Principais:
//
// 1. pkg/failure:
//   - Motor de perturbação (sudden, gradual, intermittent, cyclic, random_walk, drift).
//   - Ruído gaussiano, uniforme, exponencial e de Poisson; clamp por parâmetro.
//   - Histórico de perturbações por HistorySink.
//
// 2. pkg/pattern e pkg/analytics:
//   - Geração de formas de onda, estatísticas descritivas e previsão por tendência linear.
//
// 3. pkg/store e pkg/simulator:
//   - Repositório de simuladores e cenários (memória, PostgreSQL, SQLite, DynamoDB) com cache Redis.
//   - Regras de negócio: dono, ativação, aplicação e liberação de cenários, condições CEL.
//
// 4. pkg/transport e pkg/graphql:
//   - API REST (gorilla/mux), adaptador AWS Lambda, hot reload via SQS e schema GraphQL.
//
// Exemplo de Início Rápido:
//
//	package main
//
//	import (
//		"fmt"
//		"time"
//
//		"github.com/raywall/fast-simulator-toolkit/pkg/failure"
//	)
//
//	func main() {
//		start := time.Now()
//		engine := failure.NewEngine(failure.WithSeed(42), failure.WithStartTime(start))
//
//		rate := 0.05
//		out, err := engine.Apply(
//			failure.ParameterMap{"temperature": 20.0},
//			failure.ScenarioConfig{AdvancedConfig: &failure.AdvancedConfig{
//				Parameters: map[string]failure.ParamFailureSpec{
//					"temperature": {FailureType: failure.Drift, DriftRate: &rate},
//				},
//			}},
//			start.Add(10*time.Second),
//		)
//		if err != nil {
//			panic(err)
//		}
//		fmt.Println(out["temperature"]) // 30
//	}
package fast_simulator_toolkit
